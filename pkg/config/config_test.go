package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 6, c.Model.ScoreRange)
	assert.Equal(t, 5*time.Second, c.Datasource.RetryDelay)
	assert.Equal(t, 0, c.Datasource.MaxAttempts)
	assert.Equal(t, 'e', c.Logging.OutputRune())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
datasource:
  retry_delay: 250ms
  max_attempts: 3
  dump_dir: /tmp/fpl
store:
  path: ":memory:"
model:
  score_range: 8
logging:
  level: debug
  output: both
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, c.Datasource.RetryDelay)
	assert.Equal(t, 3, c.Datasource.MaxAttempts)
	assert.Equal(t, "/tmp/fpl", c.Datasource.DumpDir)
	assert.Equal(t, ":memory:", c.Store.Path)
	assert.Equal(t, 8, c.Model.ScoreRange)
	assert.Equal(t, 'b', c.Logging.OutputRune())

	// untouched keys keep their defaults
	assert.Equal(t, Default().Datasource.FixturesURL, c.Datasource.FixturesURL)
	assert.Equal(t, []float64{1.5, 2.5}, c.Model.OverGoalsThresholds)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"score range":  "model:\n  score_range: 0\n",
		"attempts":     "datasource:\n  max_attempts: -1\n",
		"output":       "logging:\n  output: syslog\n",
		"timeout":      "datasource:\n  timeout: 0s\n",
		"not yaml":     "model: [",
		"empty url":    "datasource:\n  fixtures_url: \"\"\n",
		"threshold":    "model:\n  over_goals_thresholds: [-1]\n",
		"empty store":  "store:\n  path: \"\"\n",
		"negative gap": "datasource:\n  retry_delay: -1s\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	c, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	path := writeConfig(t, "model:\n  score_range: 10\n")
	t.Setenv(EnvConfigPath, path)
	c, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, 10, c.Model.ScoreRange)

	explicit := writeConfig(t, "model:\n  score_range: 4\n")
	c, err = Resolve(explicit)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Model.ScoreRange)
}
