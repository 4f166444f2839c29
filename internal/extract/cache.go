package extract

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/woodway-ua/photoindex/pkg/logger"
	"github.com/woodway-ua/photoindex/pkg/metrics"
	pkgredis "github.com/woodway-ua/photoindex/pkg/redis"
)

const keyPrefix = "extract:"

// Cached wraps an Extractor with a Redis cache keyed by the normalised
// message, so repeated messages skip the extraction round-trip. Concurrent
// identical extractions are collapsed through singleflight.
type Cached struct {
	inner   Extractor
	client  *pkgredis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCached decorates inner with caching. client may be nil, in which case
// only singleflight collapsing applies.
func NewCached(inner Extractor, client *pkgredis.Client, ttl time.Duration, m *metrics.Metrics) *Cached {
	return &Cached{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		metrics: m,
		logger:  logger.WithComponent("extraction-cache"),
	}
}

// Extract returns cached keywords when available, otherwise calls the inner
// extractor once per distinct in-flight message and stores the result.
func (c *Cached) Extract(ctx context.Context, message string) ([]string, error) {
	key := buildKey(message)
	if keywords, ok := c.lookup(ctx, key); ok {
		if c.metrics != nil {
			c.metrics.ExtractionCacheHits.Inc()
		}
		return keywords, nil
	}
	if c.metrics != nil {
		c.metrics.ExtractionCacheMisses.Inc()
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if keywords, ok := c.lookup(ctx, key); ok {
			return keywords, nil
		}
		keywords, err := c.inner.Extract(ctx, message)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, keywords)
		return keywords, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]string), nil
}

func (c *Cached) lookup(ctx context.Context, key string) ([]string, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var keywords []string
	if err := json.Unmarshal([]byte(data), &keywords); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return keywords, true
}

func (c *Cached) store(ctx context.Context, key string, keywords []string) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// buildKey hashes the whitespace-normalised, lower-cased message so trivially
// reworded repeats still hit.
func buildKey(message string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(message)), " ")
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
