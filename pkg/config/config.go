package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted when no config path is given
const EnvConfigPath = "FPLODDS_CONFIG"

// Config holds every tunable the fetcher, store and model read.
// Fields missing from a YAML file keep their Default values
type Config struct {
	Datasource DatasourceConfig `yaml:"datasource"`
	Store      StoreConfig      `yaml:"store"`
	Model      ModelConfig      `yaml:"model"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type DatasourceConfig struct {
	BootstrapURL string        `yaml:"bootstrap_url"` // teams and gameweeks
	FixturesURL  string        `yaml:"fixtures_url"`  // every fixture of the season
	RetryDelay   time.Duration `yaml:"retry_delay"`   // wait between failed attempts (default: 5s)
	MaxAttempts  int           `yaml:"max_attempts"`  // 0 retries until the context is cancelled
	Timeout      time.Duration `yaml:"timeout"`       // per request
	UserAgent    string        `yaml:"user_agent"`
	DumpDir      string        `yaml:"dump_dir"` // raw responses are written here when set
}

type StoreConfig struct {
	Path string `yaml:"path"` // sqlite database file, ":memory:" for a throwaway store
}

type ModelConfig struct {
	ScoreRange          int       `yaml:"score_range"`           // K, goals 0..K-1 per side (default: 6)
	OverGoalsThresholds []float64 `yaml:"over_goals_thresholds"` // reported by the prediction tool
}

type LoggingConfig struct {
	Level        string `yaml:"level"`
	Output       string `yaml:"output"` // console, stderr, file or both
	File         string `yaml:"file"`
	ShowDateTime bool   `yaml:"show_date_time"`
}

// Default returns the configuration used when no file is supplied
func Default() *Config {
	base := filepath.Join(os.TempDir(), "fplodds")
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".fplodds")
	}

	return &Config{
		Datasource: DatasourceConfig{
			BootstrapURL: "https://fantasy.premierleague.com/api/bootstrap-static/",
			FixturesURL:  "https://fantasy.premierleague.com/api/fixtures/",
			RetryDelay:   5 * time.Second,
			MaxAttempts:  0,
			Timeout:      30 * time.Second,
			UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Store: StoreConfig{
			Path: filepath.Join(base, "fplodds.db"),
		},
		Model: ModelConfig{
			ScoreRange:          6,
			OverGoalsThresholds: []float64{1.5, 2.5},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Output: "stderr",
			File:   filepath.Join(base, "fplodds.log"),
		},
	}
}

// Load reads a YAML file over the defaults and validates the result
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return config, nil
}

// Resolve loads configPath, or the file named by FPLODDS_CONFIG when configPath is empty,
// or falls back to Default when neither is set
func Resolve(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath == "" {
		return Default(), nil
	}
	return Load(configPath)
}

// Validate ensures all configuration values are within reasonable ranges
func (c *Config) Validate() error {
	if c.Datasource.BootstrapURL == "" || c.Datasource.FixturesURL == "" {
		return fmt.Errorf("datasource urls must be set")
	}
	if c.Datasource.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative, got: %s", c.Datasource.RetryDelay)
	}
	if c.Datasource.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative, got: %d", c.Datasource.MaxAttempts)
	}
	if c.Datasource.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %s", c.Datasource.Timeout)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path must be set")
	}
	if c.Model.ScoreRange < 1 || c.Model.ScoreRange > 20 {
		return fmt.Errorf("score_range should be between 1 and 20, got: %d", c.Model.ScoreRange)
	}
	for _, th := range c.Model.OverGoalsThresholds {
		if th < 0 {
			return fmt.Errorf("over goals threshold must not be negative, got: %f", th)
		}
	}
	switch c.Logging.Output {
	case "console", "stderr", "file", "both":
	default:
		return fmt.Errorf("logging output must be one of console, stderr, file or both, got: %q", c.Logging.Output)
	}
	return nil
}

// OutputRune maps the logging output name onto the logger's output selector
func (l LoggingConfig) OutputRune() rune {
	switch l.Output {
	case "console":
		return 'c'
	case "file":
		return 'f'
	case "both":
		return 'b'
	default:
		return 'e'
	}
}
