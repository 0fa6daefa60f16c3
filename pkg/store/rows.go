package store

import (
	"time"

	"github.com/richard-senior/fplodds/pkg/fpl"
)

type snapshotRow struct {
	RunID     string `column:"run_id" dbtype:"TEXT NOT NULL" primary:"true"`
	FetchedAt int64  `column:"fetched_at" dbtype:"INTEGER NOT NULL"` // unix nanoseconds
}

func (snapshotRow) GetTableName() string { return "snapshot" }

// teamRow keeps the roster position so the roster order survives a round trip
type teamRow struct {
	ID        int    `column:"id" dbtype:"INTEGER NOT NULL" primary:"true"`
	Position  int    `column:"position" dbtype:"INTEGER NOT NULL" index:"true"`
	ShortName string `column:"short_name" dbtype:"TEXT NOT NULL"`
	Name      string `column:"name" dbtype:"TEXT NOT NULL"`
}

func (teamRow) GetTableName() string { return "team" }

type fixtureRow struct {
	ID         int  `column:"id" dbtype:"INTEGER NOT NULL" primary:"true"`
	Position   int  `column:"position" dbtype:"INTEGER NOT NULL" index:"true"`
	Event      int  `column:"event" dbtype:"INTEGER NOT NULL" index:"true"`
	HomeTeamID int  `column:"team_h" dbtype:"INTEGER NOT NULL"`
	AwayTeamID int  `column:"team_a" dbtype:"INTEGER NOT NULL"`
	HomeScore  *int `column:"team_h_score" dbtype:"INTEGER"`
	AwayScore  *int `column:"team_a_score" dbtype:"INTEGER"`
	Finished   bool `column:"finished" dbtype:"INTEGER NOT NULL"`
}

func (fixtureRow) GetTableName() string { return "fixture" }

func newSnapshotRow(s *fpl.Snapshot) *snapshotRow {
	return &snapshotRow{RunID: s.RunID, FetchedAt: s.FetchedAt.UnixNano()}
}

func newTeamRow(t fpl.Team, position int) *teamRow {
	return &teamRow{ID: t.ID, Position: position, ShortName: t.ShortName, Name: t.Name}
}

func (r teamRow) toTeam() fpl.Team {
	return fpl.Team{ID: r.ID, ShortName: r.ShortName, Name: r.Name}
}

func newFixtureRow(f fpl.Fixture, position int) *fixtureRow {
	return &fixtureRow{
		ID:         f.ID,
		Position:   position,
		Event:      f.Event,
		HomeTeamID: f.HomeTeamID,
		AwayTeamID: f.AwayTeamID,
		HomeScore:  f.HomeScore,
		AwayScore:  f.AwayScore,
		Finished:   f.Finished,
	}
}

func (r fixtureRow) toFixture() fpl.Fixture {
	return fpl.Fixture{
		ID:         r.ID,
		Event:      r.Event,
		HomeTeamID: r.HomeTeamID,
		AwayTeamID: r.AwayTeamID,
		HomeScore:  r.HomeScore,
		AwayScore:  r.AwayScore,
		Finished:   r.Finished,
	}
}

func fetchedAt(unixNano int64) time.Time {
	return time.Unix(0, unixNano).UTC()
}
