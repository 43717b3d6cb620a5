package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/wyfcoding/storefront/pkg/logger"
	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting
type RateLimiter interface {
	// Allow checks if the request is allowed for the given key and limit
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit defines the rate limit rule
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// MemoryRateLimiter implements RateLimiter with one token bucket per key
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

// NewMemoryRateLimiter creates a new MemoryRateLimiter
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

// Allow checks if the request is allowed
func (m *MemoryRateLimiter) Allow(_ context.Context, key string, limit Limit) (*Result, error) {
	l := m.limiterFor(key, limit)

	now := m.now()
	res := l.ReserveN(now, 1)
	if !res.OK() {
		return &Result{Allowed: false}, nil
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return &Result{Allowed: false, RetryAfter: delay}, nil
	}

	remaining := int(l.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return &Result{Allowed: true, Remaining: remaining}, nil
}

// Len returns the number of tracked keys
func (m *MemoryRateLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

// Prune drops keys whose bucket has refilled to its burst.
// A full bucket behaves exactly like a new one, so dropping it never changes a decision.
func (m *MemoryRateLimiter) Prune() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for key, l := range m.limiters {
		if l.TokensAt(now) >= float64(l.Burst()) {
			delete(m.limiters, key)
			pruned++
		}
	}
	return pruned
}

// Start prunes idle keys every interval until ctx is done
func (m *MemoryRateLimiter) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Prune(); n > 0 {
				logger.Debug(ctx, "Rate limiter keys pruned", "count", n, "remaining", m.Len())
			}
		}
	}
}

func (m *MemoryRateLimiter) limiterFor(key string, limit Limit) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.limiters[key]; ok {
		return l
	}
	period := limit.Period
	if period <= 0 {
		period = time.Second
	}
	every := rate.Every(period / time.Duration(max(limit.Rate, 1)))
	l := rate.NewLimiter(every, max(limit.Burst, 1))
	m.limiters[key] = l
	return l
}
