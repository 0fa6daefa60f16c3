package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/richard-senior/fplodds/internal/logger"
	"github.com/richard-senior/fplodds/pkg/fpl"
	_ "modernc.org/sqlite"
)

// ErrNoSnapshot is returned by LoadSnapshot before anything has been saved
var ErrNoSnapshot = errors.New("no snapshot stored")

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Store keeps the most recent snapshot in sqlite
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and makes sure the tables exist
func Open(ctx context.Context, path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection, so ":memory:" is one database and writers never contend
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database initialized successfully", path)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	for _, obj := range []Persistable{&snapshotRow{}, &teamRow{}, &fixtureRow{}} {
		if err := createTable(ctx, s.db, obj); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot replaces whatever is stored with snap in a single transaction
func (s *Store) SaveSnapshot(ctx context.Context, snap *fpl.Snapshot) error {
	if snap == nil || snap.RunID == "" {
		return fmt.Errorf("%w: snapshot has no run id", fpl.ErrInvalidSnapshot)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, obj := range []Persistable{&fixtureRow{}, &teamRow{}, &snapshotRow{}} {
		if err := deleteAll(ctx, tx, obj); err != nil {
			return err
		}
	}
	if err := insert(ctx, tx, newSnapshotRow(snap)); err != nil {
		return err
	}
	for i, t := range snap.Teams {
		if err := insert(ctx, tx, newTeamRow(t, i)); err != nil {
			return err
		}
	}
	for i, f := range snap.Fixtures {
		if err := insert(ctx, tx, newFixtureRow(f, i)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logger.Info("Saved snapshot", snap.RunID, "teams", len(snap.Teams), "fixtures", len(snap.Fixtures))
	return nil
}

// LoadSnapshot returns the stored snapshot with teams and fixtures in their original order
func (s *Store) LoadSnapshot(ctx context.Context) (*fpl.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	snaps, err := findWhere[snapshotRow](ctx, tx, "1 = 1 ORDER BY fetched_at DESC LIMIT 1")
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNoSnapshot
	}
	teams, err := findWhere[teamRow](ctx, tx, "1 = 1 ORDER BY position")
	if err != nil {
		return nil, err
	}
	fixtures, err := findWhere[fixtureRow](ctx, tx, "1 = 1 ORDER BY position")
	if err != nil {
		return nil, err
	}

	ret := &fpl.Snapshot{
		RunID:     snaps[0].RunID,
		FetchedAt: fetchedAt(snaps[0].FetchedAt),
		Teams:     make([]fpl.Team, 0, len(teams)),
		Fixtures:  make([]fpl.Fixture, 0, len(fixtures)),
	}
	for _, t := range teams {
		ret.Teams = append(ret.Teams, t.toTeam())
	}
	for _, f := range fixtures {
		ret.Fixtures = append(ret.Fixtures, f.toFixture())
	}
	return ret, nil
}
