// Package coordinator sits between the chat-transport layer and the search
// engine. It obtains keywords (given or extracted), runs the search against
// the current snapshot, and turns selections into a delivery manifest; it
// also owns the on-demand rebuild trigger with its per-user cooldown.
package coordinator

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/woodway-ua/photoindex/internal/analytics"
	"github.com/woodway-ua/photoindex/internal/extract"
	"github.com/woodway-ua/photoindex/internal/feedback"
	"github.com/woodway-ua/photoindex/internal/index"
	"github.com/woodway-ua/photoindex/internal/search"
	"github.com/woodway-ua/photoindex/pkg/config"
	pkgerrors "github.com/woodway-ua/photoindex/pkg/errors"
	"github.com/woodway-ua/photoindex/pkg/logger"
	"github.com/woodway-ua/photoindex/pkg/metrics"
)

// Item is one file selected for delivery. The transport resolves the path to
// bytes; the coordinator only attaches size hints.
type Item struct {
	Path string `json:"path"`
	// SizeBytes is the file size at manifest-build time, -1 when unknown.
	SizeBytes int64 `json:"size_bytes"`
	// SendAsDocument is set when the file exceeds the inline photo limit
	// and should go out as a document attachment instead.
	SendAsDocument bool `json:"send_as_document,omitempty"`
	// SkipReason is non-empty when the file cannot be delivered at all
	// (vanished since the scan, or above the hard size limit).
	SkipReason string `json:"skip_reason,omitempty"`
}

// KeywordItems groups the delivery items of one keyword.
type KeywordItems struct {
	Keyword    string `json:"keyword"`
	Candidates int    `json:"candidates"`
	TooBroad   bool   `json:"too_broad,omitempty"`
	Items      []Item `json:"items"`
}

// Manifest is the transport-facing result of one query.
type Manifest struct {
	Keywords     []KeywordItems `json:"keywords"`
	IndexBuiltAt time.Time      `json:"index_built_at"`
}

// Delivered reports the number of deliverable items across keywords.
func (m *Manifest) Delivered() int {
	n := 0
	for _, kw := range m.Keywords {
		for _, item := range kw.Items {
			if item.SkipReason == "" {
				n++
			}
		}
	}
	return n
}

// Coordinator wires the engine, index store, and collaborators together.
// The extractor, feedback store, and collector may each be nil; the
// coordinator degrades to the corresponding feature being off.
type Coordinator struct {
	store     *index.Store
	engine    *search.Engine
	extractor extract.Extractor
	feedback  *feedback.Store
	collector *analytics.Collector
	cooldown  *Cooldown
	cfg       config.SearchConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Coordinator.
func New(
	store *index.Store,
	engine *search.Engine,
	extractor extract.Extractor,
	fb *feedback.Store,
	collector *analytics.Collector,
	cooldown *Cooldown,
	cfg config.SearchConfig,
	m *metrics.Metrics,
) *Coordinator {
	return &Coordinator{
		store:     store,
		engine:    engine,
		extractor: extractor,
		feedback:  fb,
		collector: collector,
		cooldown:  cooldown,
		cfg:       cfg,
		metrics:   m,
		logger:    logger.WithComponent("coordinator"),
	}
}

// HandleQuery answers one user message. When keywords is empty the message
// is sent through the extraction service first. An empty extraction result
// yields ErrNoKeywords; a search with zero matches is a normal outcome and
// returns an empty manifest.
func (c *Coordinator) HandleQuery(ctx context.Context, userID int64, message string, keywords []string) (*Manifest, error) {
	snap := c.store.Current()
	if snap == nil {
		return nil, pkgerrors.ErrNoIndex
	}
	start := time.Now()
	log := logger.FromContext(ctx).With("component", "coordinator")

	if len(keywords) == 0 {
		if c.extractor == nil {
			return nil, pkgerrors.ErrNoKeywords
		}
		extracted, err := c.extractor.Extract(ctx, message)
		if err != nil {
			log.Error("keyword extraction failed", "error", err)
			return nil, pkgerrors.Newf(pkgerrors.ErrInternal, http.StatusInternalServerError, "keyword extraction: %v", err)
		}
		keywords = extracted
	}
	if len(keywords) == 0 {
		c.recordQuery(ctx, userID, message, false)
		return nil, pkgerrors.ErrNoKeywords
	}

	result := c.engine.Search(keywords, snap)
	manifest := c.buildManifest(result, snap)
	c.observe(result, time.Since(start))
	c.recordQuery(ctx, userID, message, manifest.Delivered() > 0)
	if c.collector != nil {
		tooBroad := 0
		for _, kw := range result.Keywords {
			if kw.TooBroad {
				tooBroad++
			}
		}
		c.collector.Track(analytics.QueryEvent{
			UserID:     userID,
			Keywords:   keywords,
			Selected:   result.Selected(),
			TooBroad:   tooBroad,
			DurationMS: time.Since(start).Milliseconds(),
			Timestamp:  time.Now().UTC(),
		})
	}
	log.Info("query handled",
		"user_id", userID,
		"keywords", len(keywords),
		"selected", result.Selected(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return manifest, nil
}

// RecordFeedback forwards a user's reaction on a delivered image.
func (c *Coordinator) RecordFeedback(ctx context.Context, userID int64, query, image string, liked bool) error {
	if c.feedback == nil {
		return nil
	}
	return c.feedback.RecordFeedback(ctx, userID, query, image, liked)
}

// RecentQueries returns the newest query-log rows, for operators reviewing
// what users actually search for. Without a feedback store the log is empty.
func (c *Coordinator) RecentQueries(ctx context.Context, limit int) ([]feedback.QueryRecord, error) {
	if c.feedback == nil {
		return []feedback.QueryRecord{}, nil
	}
	return c.feedback.RecentQueries(ctx, limit)
}

// TriggerRebuild starts an on-demand rebuild in the background. It returns
// ErrRebuildCooldown when the user re-triggers too soon and
// ErrRebuildInProgress when a rebuild is already running.
func (c *Coordinator) TriggerRebuild(ctx context.Context, userID int64) error {
	if c.cooldown != nil && !c.cooldown.Allow(ctx, userID) {
		return pkgerrors.ErrRebuildCooldown
	}
	if c.store.Rebuilding() {
		return pkgerrors.ErrRebuildInProgress
	}
	go func() {
		// Rebuild re-checks the in-flight flag itself; losing the race
		// here just means the trigger is absorbed, per the coalescing rule.
		snap, err := c.store.Rebuild(context.Background())
		if c.collector != nil {
			ev := analytics.RebuildEvent{
				Trigger:   "on-demand",
				Succeeded: err == nil,
				Timestamp: time.Now().UTC(),
			}
			if snap != nil {
				ev.Images = snap.ImageCount()
			}
			c.collector.Track(ev)
		}
	}()
	return nil
}

// Status describes the current index for the status endpoint.
type Status struct {
	Images     int        `json:"images"`
	Tokens     int        `json:"tokens"`
	BuiltAt    *time.Time `json:"built_at,omitempty"`
	Rebuilding bool       `json:"rebuilding"`
}

// IndexStatus reports image/token counts and snapshot age.
func (c *Coordinator) IndexStatus() Status {
	st := Status{Rebuilding: c.store.Rebuilding()}
	if snap := c.store.Current(); snap != nil {
		st.Images = snap.ImageCount()
		st.Tokens = snap.TokenCount()
		builtAt := snap.BuiltAt
		st.BuiltAt = &builtAt
	}
	return st
}

// buildManifest resolves each selected record to a deliverable item with
// size hints, in keyword order.
func (c *Coordinator) buildManifest(result search.Result, snap *index.Snapshot) *Manifest {
	manifest := &Manifest{
		Keywords:     make([]KeywordItems, 0, len(result.Keywords)),
		IndexBuiltAt: snap.BuiltAt,
	}
	for _, kw := range result.Keywords {
		entry := KeywordItems{
			Keyword:    kw.Keyword,
			Candidates: kw.Candidates,
			TooBroad:   kw.TooBroad,
			Items:      make([]Item, 0, len(kw.Matches)),
		}
		for _, rec := range kw.Matches {
			entry.Items = append(entry.Items, c.resolveItem(rec))
		}
		manifest.Keywords = append(manifest.Keywords, entry)
	}
	return manifest
}

// resolveItem stats the file and applies the transport size limits: above
// MaxPhotoBytes the file goes out as a document, above MaxDocumentBytes it
// cannot be delivered at all.
func (c *Coordinator) resolveItem(rec index.Record) Item {
	item := Item{Path: rec.Path, SizeBytes: -1}
	info, err := os.Stat(rec.Path)
	if err != nil {
		// Indexed but gone: the share changed since the last scan.
		item.SkipReason = "unavailable"
		return item
	}
	item.SizeBytes = info.Size()
	if c.cfg.MaxDocumentBytes > 0 && item.SizeBytes > c.cfg.MaxDocumentBytes {
		item.SkipReason = "too_large"
		return item
	}
	if c.cfg.MaxPhotoBytes > 0 && item.SizeBytes > c.cfg.MaxPhotoBytes {
		item.SendAsDocument = true
	}
	return item
}

func (c *Coordinator) recordQuery(ctx context.Context, userID int64, message string, success bool) {
	if c.feedback == nil {
		return
	}
	if err := c.feedback.RecordQuery(ctx, userID, message, success); err != nil {
		c.logger.Error("recording query failed", "error", err)
	}
}

func (c *Coordinator) observe(result search.Result, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.SearchLatency.Observe(elapsed.Seconds())
	c.metrics.SearchResultsCount.Observe(float64(result.Selected()))
	resultType := "zero_result"
	for _, kw := range result.Keywords {
		if kw.TooBroad {
			resultType = "too_broad"
			break
		}
		if len(kw.Matches) > 0 {
			resultType = "hit"
		}
	}
	c.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
}
