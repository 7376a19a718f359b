// Package cache keeps analytics snapshots in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"claimtriage/internal/analytics"
)

const defaultPrefix = "claimtriage:analytics:"

// RedisCache stores JSON snapshots under a generation number. Invalidate
// bumps the generation, which orphans every earlier entry until its TTL
// expires.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{client: client, ttl: ttl, prefix: defaultPrefix}
}

func (c *RedisCache) generationKey() string { return c.prefix + "generation" }

func (c *RedisCache) key(ctx context.Context, k string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", fmt.Errorf("read snapshot generation: %w", err)
	}
	return c.prefix + "g" + gen + ":" + k, nil
}

func (c *RedisCache) Get(ctx context.Context, k string) (*analytics.Report, error) {
	key, err := c.key(ctx, k)
	if err != nil {
		return nil, err
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var r analytics.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &r, nil
}

func (c *RedisCache) Set(ctx context.Context, k string, report *analytics.Report) error {
	key, err := c.key(ctx, k)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("bump snapshot generation: %w", err)
	}
	return nil
}
