package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all the necessary configuration for an App instance to run.
// Fields tagged with env take their defaults from the environment; the CLI
// overrides them.
type Config struct {
	ScenarioPath string `env:"COUNTERGRID_SCENARIO"`

	// StatePath is a SQLite file holding global state. Empty keeps state
	// in memory for the duration of the run.
	StatePath   string `env:"COUNTERGRID_STATE"`
	WorkerCount int    `env:"COUNTERGRID_WORKERS" envDefault:"10"`

	LogFormat string `env:"COUNTERGRID_LOG_FORMAT" envDefault:"text"`
	LogLevel  string `env:"COUNTERGRID_LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"COUNTERGRID_LOG_FILE"`

	// ReportPath receives the YAML run report; "-" writes it to the
	// app's output.
	ReportPath  string `env:"COUNTERGRID_REPORT"`
	MetricsPath string `env:"COUNTERGRID_METRICS_OUT"`
}

// ConfigFromEnv returns a Config populated from COUNTERGRID_* variables
// and defaults.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a normalized copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ScenarioPath == "" {
		return nil, errors.New("ScenarioPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.WorkerCount)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	return &cfg, nil
}
