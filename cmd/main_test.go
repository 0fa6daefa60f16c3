package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/richard-senior/fplodds/pkg/config"
	"github.com/richard-senior/fplodds/pkg/fpl"
	"github.com/richard-senior/fplodds/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goals(n int) *int {
	return &n
}

// seededConfig writes a config pointing at a database that already holds a snapshot
func seededConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fplodds.db")

	ctx := context.Background()
	db, err := store.Open(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, db.SaveSnapshot(ctx, &fpl.Snapshot{
		RunID: "seeded",
		Teams: []fpl.Team{{ID: 1, ShortName: "ARS", Name: "Arsenal"}, {ID: 2, ShortName: "CHE", Name: "Chelsea"}},
		Fixtures: []fpl.Fixture{
			{ID: 1, Event: 1, HomeTeamID: 1, AwayTeamID: 2, HomeScore: goals(2), AwayScore: goals(0), Finished: true},
			{ID: 2, Event: 2, HomeTeamID: 2, AwayTeamID: 1, HomeScore: goals(3), AwayScore: goals(0), Finished: true},
			{ID: 3, Event: 3, HomeTeamID: 1, AwayTeamID: 2, HomeScore: goals(1), AwayScore: goals(1), Finished: true},
			{ID: 4, Event: 4, HomeTeamID: 2, AwayTeamID: 1, HomeScore: goals(2), AwayScore: goals(1), Finished: true},
		},
	}))
	require.NoError(t, db.Close())

	path := filepath.Join(dir, "config.yaml")
	body := "store:\n  path: " + dbPath + "\nlogging:\n  level: warn\n  output: file\n  file: " + filepath.Join(dir, "fplodds.log") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRunPredict(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", seededConfig(t), "predict", "ARS", "CHE"}, &out))
	assert.Contains(t, out.String(), `"homeExpectedGoals": 1.125`)
	assert.Contains(t, out.String(), `"runId": "seeded"`)
}

func TestRunStrengthsFromEnvironment(t *testing.T) {
	t.Setenv(config.EnvConfigPath, seededConfig(t))
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"strengths"}, &out))
	assert.Contains(t, out.String(), `"attackHome": 0.75`)
}

func TestRunRejectsBadArguments(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	var out bytes.Buffer
	assert.ErrorContains(t, run(context.Background(), []string{"bogus"}, &out), "unknown command")
	assert.ErrorContains(t, run(context.Background(), []string{"predict", "ARS"}, &out), "home and an away")
	assert.ErrorContains(t, run(context.Background(), []string{"refresh", "now"}, &out), "no arguments")
	assert.Error(t, run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &out))
	assert.Empty(t, out.String())
}
