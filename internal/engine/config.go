package engine

import (
	"errors"
	"time"
)

// Config holds the settings applied to every run of an Engine.
type Config struct {
	// MaxParallelism is the maximum number of handlers running at once.
	MaxParallelism int
	// NodeTimeout bounds every handler call. Zero means unbounded.
	NodeTimeout time.Duration
}

// DefaultConfig returns the configuration used by the CLI when no flags are
// given.
func DefaultConfig() Config {
	return Config{MaxParallelism: 4}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.MaxParallelism < 1 {
		return errors.New("max parallelism must be at least 1")
	}
	if c.NodeTimeout < 0 {
		return errors.New("node timeout cannot be negative")
	}
	return nil
}
