package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
// A missing Postgres connection string is a fatal startup error.
func (c *Config) Validate() error {
	g := &c.Gatherer

	if g.Postgres == "" {
		return errors.New("gatherer.Postgres connection string is required")
	}
	if g.BatchSize < 1 {
		return fmt.Errorf("gatherer.BatchSize must be >= 1, got %d", g.BatchSize)
	}
	if g.QueueSize < 1 {
		return fmt.Errorf("gatherer.QueueSize must be >= 1, got %d", g.QueueSize)
	}
	if g.MaxConns < 1 {
		return fmt.Errorf("gatherer.MaxConns must be >= 1, got %d", g.MaxConns)
	}
	if g.MinConns < 0 {
		return fmt.Errorf("gatherer.MinConns must be >= 0, got %d", g.MinConns)
	}
	if g.MinConns > g.MaxConns {
		return fmt.Errorf("gatherer.MinConns (%d) cannot exceed MaxConns (%d)", g.MinConns, g.MaxConns)
	}
	return nil
}
