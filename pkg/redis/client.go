// Package redis provides a thin wrapper around go-redis/v9 used for the
// keyword-extraction cache and per-user rebuild cooldowns.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/woodway-ua/photoindex/pkg/config"
)

const connectTimeout = 5 * time.Second

// Client wraps a go-redis client behind the few operations the service
// needs.
type Client struct {
	rdb *redis.Client
}

// NewClient connects and verifies the connection with a PING, so a
// misconfigured address surfaces at startup rather than on first use.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Get returns the value at key. A missing key yields an error for which
// IsNilError reports true.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set stores value with a TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// SetNX stores value only when key is absent and reports whether the write
// happened. Cooldown windows claim their key through this.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

// IsNilError reports whether err means "key not found".
func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Ping probes the connection; used by the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
