package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/flowgrid/internal/engine"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath  string         // .hcl/.json file or directory
	OutputPath string         // result file; empty writes to the result writer
	Inputs     map[string]any // run inputs

	MaxParallelism int
	NodeTimeout    time.Duration

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if err := cfg.engineConfig().Validate(); err != nil {
		return nil, err
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort)
	}
	return &cfg, nil
}

func (c *Config) engineConfig() engine.Config {
	return engine.Config{
		MaxParallelism: c.MaxParallelism,
		NodeTimeout:    c.NodeTimeout,
	}
}
