package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/richard-senior/fplodds/internal/logger"
	"github.com/richard-senior/fplodds/pkg/config"
	"github.com/richard-senior/fplodds/pkg/fpl"
	"github.com/richard-senior/fplodds/pkg/transport"
	"golang.org/x/sync/errgroup"
)

const (
	bootstrapDumpName = "bootstrap-static.json"
	fixturesDumpName  = "fixtures.json"
)

// Getter performs one HTTP GET and returns the decoded body
type Getter func(ctx context.Context, url string, userAgent string) ([]byte, error)

// Client fetches a complete snapshot of the season from the FPL api
type Client struct {
	cfg config.DatasourceConfig
	get Getter
	now func() time.Time
}

// bootstrap is the part of bootstrap-static we use
type bootstrap struct {
	Teams  []fpl.Team `json:"teams"`
	Events []struct {
		ID        int  `json:"id"`
		IsCurrent bool `json:"is_current"`
	} `json:"events"`
}

func NewClient(cfg config.DatasourceConfig) *Client {
	return &Client{cfg: cfg, get: transport.Get, now: time.Now}
}

// WithGetter swaps the HTTP layer, mainly for tests
func (c *Client) WithGetter(get Getter) *Client {
	c.get = get
	return c
}

// FetchSnapshot downloads teams and fixtures concurrently and returns them as one snapshot.
// Both requests must succeed
func (c *Client) FetchSnapshot(ctx context.Context) (*fpl.Snapshot, error) {
	var bootstrapBody, fixturesBody []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bootstrapBody, err = c.fetch(gctx, c.cfg.BootstrapURL)
		return err
	})
	g.Go(func() error {
		var err error
		fixturesBody, err = c.fetch(gctx, c.cfg.FixturesURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var boot bootstrap
	if err := json.Unmarshal(bootstrapBody, &boot); err != nil {
		return nil, fmt.Errorf("failed to decode bootstrap data: %w", err)
	}
	var fixtures []fpl.Fixture
	if err := json.Unmarshal(fixturesBody, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	if len(boot.Teams) == 0 {
		return nil, fmt.Errorf("%w: bootstrap data has no teams", fpl.ErrInvalidSnapshot)
	}

	snapshot := &fpl.Snapshot{
		RunID:     uuid.NewString(),
		FetchedAt: c.now().UTC(),
		Teams:     boot.Teams,
		Fixtures:  fixtures,
	}

	if c.cfg.DumpDir != "" {
		if err := c.dump(bootstrapBody, fixturesBody); err != nil {
			// the snapshot is still good
			logger.Warn("Failed to dump raw data", err)
		}
	}

	for _, e := range boot.Events {
		if e.IsCurrent {
			logger.Info("Current gameweek", e.ID)
		}
	}
	logger.Info("Fetched snapshot", snapshot.RunID, "teams", len(snapshot.Teams),
		"fixtures", len(snapshot.Fixtures), "finished", snapshot.FinishedFixtures())
	return snapshot, nil
}

// fetch retries transport failures with a fixed delay until it gets a response,
// the attempt budget runs out or ctx is done. A non-200 response is not retried
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		data, err := c.attempt(ctx, url)
		if err == nil {
			logger.Debug("Fetched", url, "bytes", len(data), "attempt", attempt)
			return data, nil
		}

		var statusErr *transport.StatusError
		if errors.As(err, &statusErr) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("gave up fetching %s: %w", url, ctx.Err())
		}
		if c.cfg.MaxAttempts > 0 && attempt >= c.cfg.MaxAttempts {
			return nil, fmt.Errorf("gave up fetching %s after %d attempts: %w", url, attempt, err)
		}

		logger.Warn("Fetch failed, retrying", url, "attempt", attempt, err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up fetching %s: %w", url, ctx.Err())
		case <-time.After(c.cfg.RetryDelay):
		}
	}
}

func (c *Client) attempt(ctx context.Context, url string) ([]byte, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	return c.get(ctx, url, c.cfg.UserAgent)
}

func (c *Client) dump(bootstrapBody, fixturesBody []byte) error {
	if err := os.MkdirAll(c.cfg.DumpDir, 0755); err != nil {
		return fmt.Errorf("failed to create dump dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.cfg.DumpDir, bootstrapDumpName), bootstrapBody, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", bootstrapDumpName, err)
	}
	if err := os.WriteFile(filepath.Join(c.cfg.DumpDir, fixturesDumpName), fixturesBody, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", fixturesDumpName, err)
	}
	return nil
}
