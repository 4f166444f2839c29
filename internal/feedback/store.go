// Package feedback persists the query log and per-image feedback in
// PostgreSQL. The store is advisory: write failures are surfaced to the
// caller but never fail a search.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/woodway-ua/photoindex/pkg/logger"
	"github.com/woodway-ua/photoindex/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	query TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	ts TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS feedback (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	query TEXT NOT NULL,
	image TEXT NOT NULL,
	liked BOOLEAN NOT NULL,
	ts TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS queries_ts_idx ON queries (ts);
`

// Store records queries and feedback.
type Store struct {
	client *postgres.Client
	logger *slog.Logger
}

// New creates a Store and ensures the schema exists.
func New(ctx context.Context, client *postgres.Client) (*Store, error) {
	if _, err := client.DB.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating feedback schema: %w", err)
	}
	return &Store{
		client: client,
		logger: logger.WithComponent("feedback-store"),
	}, nil
}

// RecordQuery logs one handled query and whether it produced any result.
func (s *Store) RecordQuery(ctx context.Context, userID int64, query string, success bool) error {
	_, err := s.client.DB.ExecContext(ctx,
		`INSERT INTO queries (user_id, query, success) VALUES ($1, $2, $3)`,
		userID, query, success,
	)
	if err != nil {
		return fmt.Errorf("recording query: %w", err)
	}
	return nil
}

// RecordFeedback logs a user's reaction to one delivered image.
func (s *Store) RecordFeedback(ctx context.Context, userID int64, query, image string, liked bool) error {
	_, err := s.client.DB.ExecContext(ctx,
		`INSERT INTO feedback (user_id, query, image, liked) VALUES ($1, $2, $3, $4)`,
		userID, query, image, liked,
	)
	if err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}
	return nil
}

// QueryRecord is one row from the query log.
type QueryRecord struct {
	UserID  int64     `json:"user_id"`
	Query   string    `json:"query"`
	Success bool      `json:"success"`
	At      time.Time `json:"at"`
}

// RecentQueries returns the most recent query-log rows, newest first.
func (s *Store) RecentQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT user_id, query, success, ts FROM queries ORDER BY ts DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent queries: %w", err)
	}
	defer rows.Close()

	var out []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		if err := rows.Scan(&rec.UserID, &rec.Query, &rec.Success, &rec.At); err != nil {
			return nil, fmt.Errorf("scanning query row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query rows: %w", err)
	}
	return out, nil
}
