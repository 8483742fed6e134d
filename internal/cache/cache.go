// Package cache keeps full entity listings in redis between writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iyhunko/academy-backend/internal/config"
	"github.com/iyhunko/academy-backend/internal/metrics"
)

const (
	ProductsKey   = "products:all"
	CoursesKey    = "courses:all"
	RoboGeniusKey = "robogenius:all"
)

// ListCache stores JSON encoded listings. A nil *ListCache is a valid cache that never hits.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListCache creates a ListCache on top of client.
func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{client: client, ttl: ttl}
}

// Connect returns nil when no redis address is configured.
func Connect(ctx context.Context, conf config.Redis) (*ListCache, error) {
	if conf.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: conf.Addr, Password: conf.Password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewListCache(client, conf.TTL), nil
}

// Load decodes the cached listing under key into dst and reports whether it was present.
// Redis failures count as a miss so reads fall through to the database.
func (c *ListCache) Load(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
			return false
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
		slog.Warn("redis get failed", slog.String("key", key), slog.Any("err", err))
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		slog.Warn("cached listing is corrupt", slog.String("key", key), slog.Any("err", err))
		return false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true
}

// Store caches v under key for the configured TTL.
func (c *ListCache) Store(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to encode listing for cache", slog.String("key", key), slog.Any("err", err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("redis set failed", slog.String("key", key), slog.Any("err", err))
	}
}

// Invalidate drops key. It is called after every committed write to the listed entity.
func (c *ListCache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("redis del failed", slog.String("key", key), slog.Any("err", err))
	}
}

// Close releases the redis connection.
func (c *ListCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
