package tools

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/richard-senior/fplodds/pkg/config"
	"github.com/richard-senior/fplodds/pkg/fpl"
	"github.com/richard-senior/fplodds/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	snap  *fpl.Snapshot
	err   error
	calls int
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context) (*fpl.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

func goals(n int) *int {
	return &n
}

func result(id, event, home, away, hg, ag int) fpl.Fixture {
	return fpl.Fixture{ID: id, Event: event, HomeTeamID: home, AwayTeamID: away, HomeScore: goals(hg), AwayScore: goals(ag), Finished: true}
}

func seasonSnapshot() *fpl.Snapshot {
	return &fpl.Snapshot{
		RunID: "run-1",
		Teams: []fpl.Team{
			{ID: 1, ShortName: "ARS", Name: "Arsenal"},
			{ID: 2, ShortName: "CHE", Name: "Chelsea"},
		},
		Fixtures: []fpl.Fixture{
			result(1, 1, 1, 2, 2, 0),
			result(2, 2, 2, 1, 3, 0),
			result(3, 3, 1, 2, 1, 1),
			result(4, 4, 2, 1, 2, 1),
			{ID: 5, Event: 5, HomeTeamID: 1, AwayTeamID: 2},
		},
	}
}

func newTestService(t *testing.T, fetcher Fetcher) (*Service, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	cfg := config.Default().Model
	return NewService(fetcher, s, cfg), s
}

func TestRefreshThenPredict(t *testing.T) {
	fetcher := &fakeFetcher{snap: seasonSnapshot()}
	svc, _ := newTestService(t, fetcher)
	ctx := context.Background()

	report, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, &RefreshReport{RunID: "run-1", Teams: 2, Fixtures: 5, FinishedFixtures: 4, ModelBuilt: true}, report)

	p, err := svc.Predict(ctx, "ars", "2")
	require.NoError(t, err)
	assert.Equal(t, "Arsenal", p.Home.Name)
	assert.Equal(t, "CHE", p.Away.ShortName)
	assert.InDelta(t, 1.125, p.HomeExpectedGoals, 1e-9)
	assert.InDelta(t, 0.5, p.AwayExpectedGoals, 1e-9)
	assert.Len(t, p.Matrix, fpl.DefaultScoreRange)
	assert.InDelta(t, p.CapturedMass, p.HomeWin+p.Draw+p.AwayWin, 1e-12)
	assert.Less(t, p.CapturedMass, 1.0)
	require.Len(t, p.OverGoals, 2)
	assert.Equal(t, 2.5, p.OverGoals[1].Threshold)
	assert.Equal(t, Scoreline{HomeGoals: 1, AwayGoals: 0, Probability: p.Matrix[1][0]}, p.MostLikelyScore)
}

func TestModelLoadsFromStore(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, &fakeFetcher{err: errors.New("offline")})

	_, err := svc.Model(ctx)
	assert.ErrorIs(t, err, store.ErrNoSnapshot)

	require.NoError(t, s.SaveSnapshot(ctx, seasonSnapshot()))
	report, err := svc.Strengths(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 2.0, report.Averages.HomeScored)
	require.Len(t, report.Teams, 2)
	assert.Equal(t, fpl.Defined(0.75), report.Teams[0].Profile.AttackHome)
	assert.Equal(t, "LDLW", report.Teams[0].Record.Form)
}

func TestModelConcurrentFirstUse(t *testing.T) {
	svc, s := newTestService(t, &fakeFetcher{})
	ctx := context.Background()
	require.NoError(t, s.SaveSnapshot(ctx, seasonSnapshot()))

	const callers = 8
	models := make([]*fpl.Model, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			models[i], errs[i] = svc.Model(ctx)
		}(i)
	}
	wg.Wait()

	installed, err := svc.Model(ctx)
	require.NoError(t, err)
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, installed.Averages, models[i].Averages)
	}
	again, err := svc.Model(ctx)
	require.NoError(t, err)
	assert.Same(t, installed, again)
}

func TestRefreshFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &fakeFetcher{err: errors.New("offline")})
	_, err := svc.Refresh(ctx)
	assert.ErrorContains(t, err, "offline")

	// a snapshot with no results yet is stored but cannot be modelled
	early := seasonSnapshot()
	early.Fixtures = early.Fixtures[4:]
	svc, s := newTestService(t, &fakeFetcher{snap: early})
	report, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, report.ModelBuilt)
	assert.NotEmpty(t, report.ModelError)

	stored, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", stored.RunID)

	_, err = svc.Predict(ctx, "ARS", "CHE")
	assert.ErrorIs(t, err, fpl.ErrInsufficientData)
}

func TestHandleScoreDistribution(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &fakeFetcher{snap: seasonSnapshot()})
	_, err := svc.HandleRefresh(ctx, nil)
	require.NoError(t, err)

	out, err := svc.HandleScoreDistribution(ctx, map[string]any{"home": float64(2), "away": "ARS"})
	require.NoError(t, err)
	p, ok := out.(*Prediction)
	require.True(t, ok)
	assert.InDelta(t, 3.125, p.HomeExpectedGoals, 1e-9)

	_, err = svc.HandleScoreDistribution(ctx, map[string]any{"home": "ARS"})
	assert.Error(t, err)
	_, err = svc.HandleScoreDistribution(ctx, "ARS v CHE")
	assert.Error(t, err)
	_, err = svc.HandleScoreDistribution(ctx, map[string]any{"home": "ARS", "away": "ARS"})
	assert.ErrorIs(t, err, fpl.ErrInvalidArgument)
	_, err = svc.HandleScoreDistribution(ctx, map[string]any{"home": "ARS", "away": "LIV"})
	assert.ErrorIs(t, err, fpl.ErrUnknownTeam)
}

func TestToolDefinitions(t *testing.T) {
	assert.Equal(t, RefreshToolName, RefreshTool().Name)
	assert.Equal(t, TeamStrengthsToolName, TeamStrengthsTool().Name)
	sd := ScoreDistributionTool()
	assert.Equal(t, ScoreDistributionToolName, sd.Name)
	assert.ElementsMatch(t, []string{"home", "away"}, sd.InputSchema.Required)
}
