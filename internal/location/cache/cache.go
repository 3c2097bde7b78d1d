// Package cache provides a Redis-backed TTL cache in front of the
// location feed. The feed is one large list shared by every service, so a
// single cache entry covers all reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	catalogmetrics "clearcheck/internal/catalog/metrics"
	"clearcheck/internal/location"
	"clearcheck/internal/location/models"
	platformredis "clearcheck/internal/platform/redis"
)

const cacheKey = "locations"

// RedisCache wraps a location client with read-through caching.
type RedisCache struct {
	inner   location.Client
	redis   *platformredis.Client
	ttl     time.Duration
	metrics *catalogmetrics.Metrics
}

func NewRedisCache(inner location.Client, redis *platformredis.Client, ttl time.Duration, metrics *catalogmetrics.Metrics) *RedisCache {
	return &RedisCache{inner: inner, redis: redis, ttl: ttl, metrics: metrics}
}

func (c *RedisCache) List(ctx context.Context) ([]models.Location, error) {
	raw, err := c.redis.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var locs []models.Location
		if err := json.Unmarshal(raw, &locs); err == nil {
			c.metrics.RecordCacheHit()
			return locs, nil
		}
		// Corrupt entry: fall through to the feed and overwrite.
	case !errors.Is(err, goredis.Nil):
		// Redis being down must not take the feed down with it; treat as a
		// miss and read through.
	}

	c.metrics.RecordCacheMiss()
	locs, err := c.inner.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("location fetch: %w", err)
	}

	if payload, err := json.Marshal(locs); err == nil {
		_ = c.redis.Set(ctx, cacheKey, payload, c.ttl).Err()
	}
	return locs, nil
}

// Invalidate drops the cached list, forcing the next read through to the
// feed.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, cacheKey).Err()
}
