package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryThrottle keeps claimed keys in a map guarded by a mutex. Expired
// keys are swept lazily on Allow once the map grows past sweepAt.
type InMemoryThrottle struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
	sweepAt int
}

func NewInMemoryThrottle() *InMemoryThrottle {
	return &InMemoryThrottle{
		expires: make(map[string]time.Time),
		now:     time.Now,
		sweepAt: 1024,
	}
}

func (t *InMemoryThrottle) Allow(_ context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if exp, ok := t.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	if len(t.expires) >= t.sweepAt {
		t.sweep(now)
	}
	t.expires[key] = now.Add(window)
	return true, nil
}

func (t *InMemoryThrottle) Release(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.expires, key)
	return nil
}

func (t *InMemoryThrottle) sweep(now time.Time) {
	for k, exp := range t.expires {
		if !now.Before(exp) {
			delete(t.expires, k)
		}
	}
}

func (t *InMemoryThrottle) Ping(context.Context) error { return nil }

func (t *InMemoryThrottle) Close() error { return nil }

// Len returns the number of tracked keys.
func (t *InMemoryThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.expires)
}

var _ Throttle = (*InMemoryThrottle)(nil)
