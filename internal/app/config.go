package app

import (
	"errors"
	"fmt"
	"slices"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScriptPath string
	// Variables are bound before the script's own assignments run.
	Variables   map[string]string
	ModulesPath string // component manifests

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Graph prints the compiled flow instead of running it.
	Graph bool
	// List prints the known components; no script is needed.
	List bool
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ScriptPath == "" && !cfg.List {
		return nil, errors.New("ScriptPath is a required configuration field and cannot be empty")
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	if cfg.Variables == nil {
		cfg.Variables = map[string]string{}
	}
	return &cfg, nil
}
