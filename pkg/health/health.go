// Package health aggregates per-dependency probe functions into a single
// readiness report. Checks run concurrently under a shared deadline; the
// report's status is the worst individual status.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status is the health state of one component or of the system overall.
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// rank orders statuses from healthy to failed so the aggregate can take a
// maximum.
func (s Status) rank() int {
	switch s {
	case StatusUp:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Check probes one dependency.
type Check func(ctx context.Context) ComponentHealth

// ComponentHealth is the outcome of a single probe.
type ComponentHealth struct {
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Report aggregates all component probes.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	CheckedAt  time.Time                  `json:"checked_at"`
}

// Checker holds the registered probes.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// Register adds a named probe. Registering the same name again replaces the
// previous probe.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes every registered probe concurrently and aggregates the
// results.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	type outcome struct {
		name   string
		health ComponentHealth
	}
	results := make(chan outcome, len(checks))
	for name, check := range checks {
		go func(name string, probe Check) {
			start := time.Now()
			h := probe(ctx)
			h.LatencyMS = time.Since(start).Milliseconds()
			results <- outcome{name: name, health: h}
		}(name, check)
	}

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(checks)),
		CheckedAt:  time.Now().UTC(),
	}
	for range checks {
		res := <-results
		report.Components[res.name] = res.health
		if res.health.Status.rank() > report.Status.rank() {
			report.Status = res.health.Status
		}
	}
	return report
}

// LiveHandler answers liveness probes. It only proves the process serves
// HTTP; dependency state is the readiness handler's concern.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}

// ReadyHandler answers readiness probes with the full report. Degraded
// components (optional dependencies that are down) keep the service ready;
// only a hard StatusDown takes it out of rotation.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusDown {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
