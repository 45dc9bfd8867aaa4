// Package spanner wires the storefront stores to Cloud Spanner.
package spanner

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
)

// Config identifies the storefront database and sizes the session pool.
// Zero session counts keep the client library defaults.
type Config struct {
	ProjectID  string
	InstanceID string
	DatabaseID string

	MinSessions uint64
	MaxSessions uint64
}

// DSN returns the database path, e.g. projects/p/instances/i/databases/d.
func (c Config) DSN() string {
	return fmt.Sprintf("projects/%s/instances/%s/databases/%s",
		c.ProjectID, c.InstanceID, c.DatabaseID)
}

func (c Config) validate() error {
	if c.ProjectID == "" || c.InstanceID == "" || c.DatabaseID == "" {
		return fmt.Errorf("spanner: incomplete database path %q", c.DSN())
	}
	if c.MaxSessions != 0 && c.MinSessions > c.MaxSessions {
		return fmt.Errorf("spanner: min sessions %d exceeds max sessions %d", c.MinSessions, c.MaxSessions)
	}
	return nil
}

func (c Config) clientConfig() spanner.ClientConfig {
	pool := spanner.DefaultSessionPoolConfig
	if c.MinSessions != 0 {
		pool.MinOpened = c.MinSessions
	}
	if c.MaxSessions != 0 {
		pool.MaxOpened = c.MaxSessions
	}
	return spanner.ClientConfig{SessionPoolConfig: pool}
}

// NewClient opens a client for the configured database. The caller closes it.
func NewClient(ctx context.Context, cfg Config) (*spanner.Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client, err := spanner.NewClientWithConfig(ctx, cfg.DSN(), cfg.clientConfig())
	if err != nil {
		return nil, fmt.Errorf("creating spanner client for %s: %w", cfg.DSN(), err)
	}
	return client, nil
}
