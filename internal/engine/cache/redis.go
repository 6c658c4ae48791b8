// internal/engine/cache/redis.go
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "recall:answer:"

// Redis is a Store backed by a shared Redis instance, used for the answer
// cache when Redis is configured. Keys are prefixed so the engine can share
// the instance with other services.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get returns the cached value for key. Connection errors are treated as
// cache misses; the engine recomputes instead of failing.
func (c *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Put stores value under key with the configured TTL. Write errors are
// dropped for the same reason.
func (c *Redis) Put(ctx context.Context, key, value string) {
	_ = c.client.Set(ctx, keyPrefix+key, value, c.ttl).Err()
}
