package data

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStatsCache backs the short-lived trash stats cache. Cache
// failures are silent: stats are always recomputable from the store.
type RedisStatsCache struct {
	client *redis.Client
}

// NewRedisStatsCache creates the cache
func NewRedisStatsCache(client *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{client: client}
}

// Get returns the cached value and whether it was present
func (c *RedisStatsCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores a value with the given TTL
func (c *RedisStatsCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	_ = c.client.Set(ctx, key, value, ttl).Err()
}
