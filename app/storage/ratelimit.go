package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/redis/go-redis/v9"

	"github.com/umputun/form-spam/lib/formspam"
)

// RedisLimiter is a formspam.RateLimiter shared between instances through redis.
// Counter and window expiry are set in a single MULTI, the window starts on the first call
// and is not extended by later calls.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

// NewRedisLimiter makes a limiter from redis url, like redis://localhost:6379/0, and checks the connection
func NewRedisLimiter(ctx context.Context, redisURL, prefix string, maxCalls int, window time.Duration) (*RedisLimiter, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	client := redis.NewClient(opts)

	// redis may be not ready yet
	err = repeater.NewDefault(3, time.Second).Do(ctx, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if maxCalls <= 0 {
		maxCalls = formspam.DefaultRateLimitMax
	}
	if window <= 0 {
		window = formspam.DefaultRateLimitWindow
	}
	if prefix == "" {
		prefix = "form-spam"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: maxCalls, window: window}, nil
}

// Allow increments the counter for the key, sets window expiry if not set yet
func (r *RedisLimiter) Allow(ctx context.Context, key string) (allowed bool, count int, err error) {
	rkey := r.prefix + ":ratelimit:" + key
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, rkey)
	pipe.ExpireNX(ctx, rkey, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to increment counter for %s: %w", key, err)
	}
	count = int(incr.Val())
	return count <= r.max, count, nil
}

// Close closes redis connection
func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
