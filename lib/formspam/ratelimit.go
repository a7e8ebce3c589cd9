package formspam

import (
	"context"
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

//go:generate moq --out mocks/rate_limiter.go --pkg mocks --skip-ensure --with-resets . RateLimiter

// RateLimiter counts remote calls per caller within a window
type RateLimiter interface {
	// Allow increments the counter for the key and reports whether the call is within the limit
	Allow(ctx context.Context, key string) (allowed bool, count int, err error)
}

// default limits of remote calls
const (
	DefaultRateLimitMax    = 60
	DefaultRateLimitWindow = time.Hour
)

// MemoryLimiter is an in-process RateLimiter, thread-safe.
// The window starts on the first call for a key and is not extended by later calls.
type MemoryLimiter struct {
	max    int
	window time.Duration
	cache  cache.Cache[string, windowCounter]
	mu     sync.Mutex
}

type windowCounter struct {
	count   int
	expires time.Time
}

// NewMemoryLimiter makes a limiter allowing max calls per window for each key
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max <= 0 {
		max = DefaultRateLimitMax
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	const maxKeys = 100_000
	return &MemoryLimiter{
		max:    max,
		window: window,
		cache:  cache.NewCache[string, windowCounter]().WithMaxKeys(maxKeys).WithTTL(window),
	}
}

// Allow increments the counter for the key. The first call in a window sets the counter to 1.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (allowed bool, count int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	wc, found := l.cache.Get(key)
	if !found || !now.Before(wc.expires) {
		wc = windowCounter{expires: now.Add(l.window)}
	}
	wc.count++
	l.cache.Set(key, wc, wc.expires.Sub(now))
	return wc.count <= l.max, wc.count, nil
}
