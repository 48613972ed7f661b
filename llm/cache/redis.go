package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "amendo:gen:"

// Redis is a response cache backed by a Redis instance, for sharing
// deterministic generation results across processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a Redis-backed response cache. A zero ttl defaults to
// one hour. Redis errors degrade to cache misses; they never fail the
// generation path.
func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Get implements llm.ResponseCache.
func (c *Redis) Get(ctx context.Context, key string) (string, bool) {
	text, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache get failed", zap.Error(err))
		}
		return "", false
	}
	return text, true
}

// Set implements llm.ResponseCache.
func (c *Redis) Set(ctx context.Context, key, text string) error {
	return c.client.Set(ctx, redisKeyPrefix+key, text, c.ttl).Err()
}

// TwoLevel layers a local LRU in front of a shared Redis cache.
// Reads fill the local level; writes go to both.
type TwoLevel struct {
	local  *LRU
	remote *Redis
}

// NewTwoLevel combines a local LRU and a Redis cache.
func NewTwoLevel(local *LRU, remote *Redis) *TwoLevel {
	return &TwoLevel{local: local, remote: remote}
}

// Get implements llm.ResponseCache.
func (c *TwoLevel) Get(ctx context.Context, key string) (string, bool) {
	if text, ok := c.local.Get(ctx, key); ok {
		return text, true
	}
	text, ok := c.remote.Get(ctx, key)
	if ok {
		_ = c.local.Set(ctx, key, text)
	}
	return text, ok
}

// Set implements llm.ResponseCache.
func (c *TwoLevel) Set(ctx context.Context, key, text string) error {
	_ = c.local.Set(ctx, key, text)
	return c.remote.Set(ctx, key, text)
}
