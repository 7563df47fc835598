package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DisplayNameCache memoizes resolved display names between audit messages.
type DisplayNameCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Invalidate(ctx context.Context, keys ...string)
}

type redisDisplayCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisDisplayCache stores display names in Redis. A nil client yields a nil cache.
func NewRedisDisplayCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) DisplayNameCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisDisplayCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "display_cache").Logger(),
	}
}

func (c *redisDisplayCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, cacheKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to read display name cache")
		}
		return "", false
	}
	return value, true
}

func (c *redisDisplayCache) Set(ctx context.Context, key, value string) {
	if err := c.client.Set(ctx, cacheKey(key), value, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to store display name cache")
	}
}

func (c *redisDisplayCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, cacheKey(key))
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate display name cache")
	}
}

func cacheKey(key string) string {
	return fmt.Sprintf("audit:display:%s", key)
}
