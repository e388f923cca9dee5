package app

import (
	"errors"
	"fmt"
)

// Output formats for run reports.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath string // .hcl, .hcl.json or .yaml files

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Output          string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}

	switch cfg.Output {
	case "":
		cfg.Output = OutputTable
	case OutputTable, OutputJSON:
	default:
		return nil, fmt.Errorf("invalid output format %q: must be '%s' or '%s'", cfg.Output, OutputTable, OutputJSON)
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}

	return &cfg, nil
}
