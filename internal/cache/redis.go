// Package cache holds the Redis client and the small primitives built
// on it.
package cache

import (
	"context"
	"time"

	"github.com/medicothink/medicothink-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// Cooldown rate-limits repeatable actions with a per-key TTL lock.
type Cooldown struct {
	client *redis.Client
}

func NewCooldown(client *redis.Client) *Cooldown {
	return &Cooldown{client: client}
}

// Acquire takes the cooldown lock for key. Returns false while a prior
// acquisition is still within its TTL.
func (c *Cooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, "1", ttl).Result()
}
