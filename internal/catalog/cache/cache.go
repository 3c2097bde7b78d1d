// Package cache provides a Redis-backed TTL cache in front of the catalog
// feed. Catalog definitions change rarely; the TTL bounds staleness.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"clearcheck/internal/catalog"
	catalogmetrics "clearcheck/internal/catalog/metrics"
	"clearcheck/internal/catalog/models"
	platformredis "clearcheck/internal/platform/redis"
	id "clearcheck/pkg/domain"
)

// RedisCache wraps a catalog client with read-through caching.
type RedisCache struct {
	inner   catalog.Client
	redis   *platformredis.Client
	ttl     time.Duration
	metrics *catalogmetrics.Metrics
}

func NewRedisCache(inner catalog.Client, redis *platformredis.Client, ttl time.Duration, metrics *catalogmetrics.Metrics) *RedisCache {
	return &RedisCache{inner: inner, redis: redis, ttl: ttl, metrics: metrics}
}

func cacheKey(serviceID id.ServiceID) string {
	return "catalog:" + serviceID.String()
}

func (c *RedisCache) Requirements(ctx context.Context, serviceID id.ServiceID) ([]models.Requirement, error) {
	key := cacheKey(serviceID)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var reqs []models.Requirement
		if err := json.Unmarshal(raw, &reqs); err == nil {
			c.metrics.RecordCacheHit()
			return reqs, nil
		}
		// Corrupt entry: fall through to the feed and overwrite.
	case !errors.Is(err, goredis.Nil):
		// Redis being down must not take the catalog down with it; treat
		// as a miss and read through.
	}

	c.metrics.RecordCacheMiss()
	reqs, err := c.inner.Requirements(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch: %w", err)
	}

	if payload, err := json.Marshal(reqs); err == nil {
		_ = c.redis.Set(ctx, key, payload, c.ttl).Err()
	}
	return reqs, nil
}

// Invalidate drops the cached entry for a service, forcing the next read
// through to the feed.
func (c *RedisCache) Invalidate(ctx context.Context, serviceID id.ServiceID) error {
	return c.redis.Del(ctx, cacheKey(serviceID)).Err()
}
