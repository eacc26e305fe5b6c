package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces worker dispatch per worker kind, so a burst of LLM-backed
// workers cannot stampede a provider while cheap local workers run freely.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new dispatch rate limiter
func NewLimiter(launchesPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(launchesPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the given worker kind may launch, or ctx is done.
func (l *Limiter) Wait(ctx context.Context, kind string) error {
	return l.getLimiter(kind).Wait(ctx)
}

// Allow checks whether a launch is permitted without waiting.
func (l *Limiter) Allow(kind string) bool {
	return l.getLimiter(kind).Allow()
}

// getLimiter returns the limiter for a worker kind, creating it on first use
func (l *Limiter) getLimiter(kind string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[kind]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists = l.limiters[kind]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[kind] = limiter
	return limiter
}
