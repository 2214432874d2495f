// Package cache holds short-lived shared state: the OTP resend throttle.
package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "storefront:throttle:"

// Throttle admits at most one event per key per window. Release drops a
// claim early, for callers whose guarded action failed.
type Throttle interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	io.Closer
}

// NewThrottle returns a Redis-backed throttle when redisURL is set and an
// in-process one otherwise. The in-process throttle is not shared between
// server replicas.
func NewThrottle(ctx context.Context, redisURL string, logger *slog.Logger) (Throttle, error) {
	if redisURL == "" {
		logger.Info("REDIS_URL not set, using in-memory throttle")
		return NewInMemoryThrottle(), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisThrottle(client), nil
}

// RedisThrottle claims a key with SET NX PX so every replica sees the same window.
type RedisThrottle struct {
	client *redis.Client
}

func NewRedisThrottle(client *redis.Client) *RedisThrottle {
	return &RedisThrottle{client: client}
}

func (t *RedisThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	ok, err := t.client.SetNX(ctx, keyPrefix+key, "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("throttle setnx: %w", err)
	}
	return ok, nil
}

func (t *RedisThrottle) Release(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("throttle del: %w", err)
	}
	return nil
}

func (t *RedisThrottle) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

func (t *RedisThrottle) Close() error {
	return t.client.Close()
}

var _ Throttle = (*RedisThrottle)(nil)
