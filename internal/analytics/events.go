// Package analytics publishes per-query events to Kafka through a buffered,
// non-blocking collector. Losing an event under pressure is preferred over
// slowing a search down.
package analytics

import "time"

// QueryEvent records one handled search query.
type QueryEvent struct {
	UserID     int64     `json:"user_id"`
	Keywords   []string  `json:"keywords"`
	Selected   int       `json:"selected"`
	TooBroad   int       `json:"too_broad"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// RebuildEvent records one index rebuild outcome.
type RebuildEvent struct {
	Trigger   string    `json:"trigger"`
	Images    int       `json:"images"`
	Succeeded bool      `json:"succeeded"`
	Timestamp time.Time `json:"timestamp"`
}
