// Package ratelimit is the Rate Limiter (C1): one token bucket per
// resource identity, created lazily on first acquire. Built on
// golang.org/x/time/rate.Limiter rather than hand-rolling bucket math —
// WaitN already gives correct monotonic-clock refill/consume/sleep
// accounting for exactly the contract spec.md §4.1 describes.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Config is the default (R, B) a resource is created with on first use.
type Config struct {
	Rate  rate.Limit // tokens/second, may be fractional
	Burst int        // bucket capacity
}

// Limiter holds one golang.org/x/time/rate.Limiter per resource identity,
// all bucket mutation happening under a per-resource lock internal to
// rate.Limiter itself; the map guard here is only for lazy creation.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	defaults Config
}

func NewLimiter(defaults Config) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*rate.Limiter),
		defaults: defaults,
	}
}

// Configure sets an explicit (R, B) for resource, used at registration
// time before any Acquire call creates the bucket with defaults instead.
func (l *Limiter) Configure(resource string, cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.buckets[resource]; exists {
		return
	}
	l.buckets[resource] = rate.NewLimiter(cfg.Rate, cfg.Burst)
}

func (l *Limiter) bucketFor(resource string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[resource]
	if !ok {
		b = rate.NewLimiter(l.defaults.Rate, l.defaults.Burst)
		l.buckets[resource] = b
	}
	return b
}

// Acquire blocks until one token is available for resource, refilling
// proportionally to elapsed time. It never rejects — the only failure
// mode is ctx cancellation, which callers treat as "stop waiting."
func (l *Limiter) Acquire(ctx context.Context, resource string) error {
	return l.bucketFor(resource).WaitN(ctx, 1)
}
