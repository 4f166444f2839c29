package index

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	pkgerrors "github.com/woodway-ua/photoindex/pkg/errors"
	"github.com/woodway-ua/photoindex/pkg/logger"
	"github.com/woodway-ua/photoindex/pkg/metrics"
)

// Source produces fresh snapshots. *Scanner is the production
// implementation.
type Source interface {
	Scan() (*Snapshot, error)
}

// Store owns the current Snapshot and the rebuild lifecycle. The snapshot is
// published through an atomic pointer: a rebuild constructs the new snapshot
// off to the side and installs it with a single swap, so concurrent readers
// see either the old or the new index in full, never a mix.
//
// At most one rebuild runs at a time. A trigger arriving while one is in
// flight is absorbed (ErrRebuildInProgress), not queued, which bounds the
// number of full share walks under load.
type Store struct {
	source       Source
	current      atomic.Pointer[Snapshot]
	rebuilding   atomic.Bool
	snapshotFile string
	interval     time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewStore creates a Store around the given snapshot source. snapshotFile
// may be empty to disable warm-start persistence; m may be nil in tests.
func NewStore(source Source, interval time.Duration, snapshotFile string, m *metrics.Metrics) *Store {
	return &Store{
		source:       source,
		snapshotFile: snapshotFile,
		interval:     interval,
		metrics:      m,
		logger:       logger.WithComponent("index-store"),
	}
}

// Current returns the snapshot most recently published, or nil when no scan
// has completed yet and no warm-start file was loaded.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Rebuilding reports whether a rebuild is currently in flight.
func (s *Store) Rebuilding() bool {
	return s.rebuilding.Load()
}

// Rebuild performs one full scan and publishes the result. When a rebuild is
// already running the call is absorbed and returns ErrRebuildInProgress. On
// scan failure the previous snapshot remains current: stale-but-available
// beats unavailable.
func (s *Store) Rebuild(ctx context.Context) (*Snapshot, error) {
	if !s.rebuilding.CompareAndSwap(false, true) {
		s.logger.Warn("rebuild requested but already running")
		if s.metrics != nil {
			s.metrics.IndexRebuildsTotal.WithLabelValues("coalesced").Inc()
		}
		return nil, pkgerrors.ErrRebuildInProgress
	}
	defer s.rebuilding.Store(false)

	log := logger.FromContext(ctx).With("component", "index-store")
	log.Info("rebuilding index")
	start := time.Now()

	snap, err := s.source.Scan()
	if err != nil {
		if s.metrics != nil {
			s.metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		}
		log.Error("index rebuild failed, keeping previous snapshot", "error", err)
		return nil, err
	}

	s.current.Store(snap)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.IndexRebuildsTotal.WithLabelValues("ok").Inc()
		s.metrics.IndexRebuildDuration.Observe(elapsed.Seconds())
		s.metrics.ImagesIndexed.Set(float64(snap.ImageCount()))
		s.metrics.IndexAge.Set(0)
	}
	log.Info("index rebuilt",
		"images", snap.ImageCount(),
		"tokens", snap.TokenCount(),
		"elapsed", elapsed.Round(time.Millisecond),
	)

	if s.snapshotFile != "" {
		if err := saveSnapshotFile(s.snapshotFile, snap); err != nil {
			log.Error("saving snapshot file failed", "file", s.snapshotFile, "error", err)
		}
	}
	return snap, nil
}

// LoadWarmStart restores the last persisted snapshot so searches work
// immediately after a restart. The loaded snapshot is not authoritative and
// is superseded by the first completed rebuild. Missing file is a no-op.
func (s *Store) LoadWarmStart() error {
	if s.snapshotFile == "" {
		return nil
	}
	snap, err := loadSnapshotFile(s.snapshotFile)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	s.current.CompareAndSwap(nil, snap)
	if s.metrics != nil {
		s.metrics.ImagesIndexed.Set(float64(snap.ImageCount()))
	}
	s.logger.Info("warm-start snapshot loaded",
		"file", s.snapshotFile,
		"images", snap.ImageCount(),
		"built_at", snap.BuiltAt,
	)
	return nil
}

// Run rebuilds immediately and then on every interval tick until ctx is
// cancelled. Scan failures are logged and retried on the next tick.
func (s *Store) Run(ctx context.Context) {
	if _, err := s.Rebuild(ctx); err != nil {
		s.logger.Error("initial rebuild failed", "error", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rebuild loop stopping")
			return
		case <-ticker.C:
			if s.metrics != nil {
				if snap := s.Current(); snap != nil {
					s.metrics.IndexAge.Set(time.Since(snap.BuiltAt).Seconds())
				}
			}
			if _, err := s.Rebuild(ctx); err != nil {
				s.logger.Error("scheduled rebuild failed", "error", err)
			}
		}
	}
}
