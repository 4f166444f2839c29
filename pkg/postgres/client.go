// Package postgres wraps database/sql with lib/pq for the query/feedback log.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/woodway-ua/photoindex/pkg/config"
)

const connectTimeout = 5 * time.Second

// Client holds the shared connection pool. DB is exported so stores can run
// their own statements against it.
type Client struct {
	DB *sql.DB
}

// New opens a pool against the configured database and verifies it with a
// ping before returning.
func New(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{DB: db}, nil
}

// Ping probes the connection; used by the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close releases the pool.
func (c *Client) Close() error {
	return c.DB.Close()
}
