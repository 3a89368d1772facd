// Package ratelimit provides token-bucket rate limiters backed by
// golang.org/x/time/rate: a single global gate and a per-client variant
// keyed by client address.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter that decides whether an incoming
// request should be allowed.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a Limiter that permits rps requests per second with the
// given burst size.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// PerWindow creates a Limiter allowing n requests per window, with a burst of n.
func PerWindow(n int, window time.Duration) *Limiter {
	return NewLimiter(float64(n)/window.Seconds(), n)
}

// Allow reports whether a single request may proceed.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// Keyed hands out one token bucket per key, typically a client IP. Buckets
// that have been idle for longer than the configured idle time are dropped
// on the next sweep so the map does not grow without bound.
type Keyed struct {
	rps   float64
	burst int
	idle  time.Duration

	mu        sync.Mutex
	buckets   map[string]*keyedBucket
	lastSweep time.Time
	nowFunc   func() time.Time
}

type keyedBucket struct {
	lim  *Limiter
	seen time.Time
}

// NewKeyed creates a per-key limiter. idle <= 0 defaults to ten minutes.
func NewKeyed(rps float64, burst int, idle time.Duration) *Keyed {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Keyed{
		rps:     rps,
		burst:   burst,
		idle:    idle,
		buckets: make(map[string]*keyedBucket),
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key may proceed.
func (k *Keyed) Allow(key string) bool {
	now := k.nowFunc()

	k.mu.Lock()
	k.sweepLocked(now)
	b, ok := k.buckets[key]
	if !ok {
		b = &keyedBucket{lim: NewLimiter(k.rps, k.burst)}
		k.buckets[key] = b
	}
	b.seen = now
	k.mu.Unlock()

	return b.lim.Allow()
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

func (k *Keyed) sweepLocked(now time.Time) {
	if now.Sub(k.lastSweep) < k.idle {
		return
	}
	k.lastSweep = now
	for key, b := range k.buckets {
		if now.Sub(b.seen) >= k.idle {
			delete(k.buckets, key)
		}
	}
}
