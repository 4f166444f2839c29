package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/woodway-ua/photoindex/pkg/logger"
	pkgredis "github.com/woodway-ua/photoindex/pkg/redis"
)

// Cooldown rate-limits the on-demand rebuild trigger per user. It claims a
// Redis key with the cooldown TTL when Redis is available and falls back to
// an in-process map otherwise, so a single instance still enforces the
// window without Redis.
type Cooldown struct {
	client *pkgredis.Client
	window time.Duration
	mu     sync.Mutex
	local  map[int64]time.Time
	logger *slog.Logger
}

// NewCooldown creates a Cooldown with the given window. client may be nil.
func NewCooldown(client *pkgredis.Client, window time.Duration) *Cooldown {
	return &Cooldown{
		client: client,
		window: window,
		local:  make(map[int64]time.Time),
		logger: logger.WithComponent("rebuild-cooldown"),
	}
}

// Allow reports whether the user may trigger a rebuild now, and claims the
// window when they may.
func (c *Cooldown) Allow(ctx context.Context, userID int64) bool {
	if c.window <= 0 {
		return true
	}
	if c.client != nil {
		key := fmt.Sprintf("rebuild-cooldown:%d", userID)
		ok, err := c.client.SetNX(ctx, key, 1, c.window)
		if err == nil {
			return ok
		}
		c.logger.Warn("cooldown check via redis failed, using local fallback", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if last, ok := c.local[userID]; ok && now.Sub(last) < c.window {
		return false
	}
	c.local[userID] = now
	return true
}
