package ratelimit

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBudgetExhausted is returned by Use once the daily allowance is spent.
var ErrBudgetExhausted = errors.New("daily request budget exhausted")

// Budget caps calls to a paid API per rolling day and tracks how many were
// avoided through caching.
type Budget struct {
	mu        sync.Mutex
	name      string
	max       int
	used      int
	cacheHits int
	resetTime time.Time
	now       func() time.Time
}

// NewBudget creates a budget allowing max calls per 24h. max <= 0 means
// unlimited.
func NewBudget(name string, max int) *Budget {
	b := &Budget{name: name, max: max, now: time.Now}
	b.resetTime = b.now().Add(24 * time.Hour)
	return b
}

// Use records a call, or returns ErrBudgetExhausted without recording it.
func (b *Budget) Use() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	if b.max > 0 && b.used >= b.max {
		slog.Warn("request budget reached", "api", b.name, "used", b.used, "limit", b.max)
		return ErrBudgetExhausted
	}
	b.used++
	slog.Debug("request budget", "api", b.name, "used", b.used, "limit", b.max)
	return nil
}

// RecordCacheHit counts a call answered from cache.
func (b *Budget) RecordCacheHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheHits++
}

// GetStats returns the current counters.
func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	return map[string]interface{}{
		"api":        b.name,
		"used":       b.used,
		"limit":      b.max,
		"cache_hits": b.cacheHits,
		"reset_time": b.resetTime,
	}
}

// checkReset resets counters if reset time has passed
func (b *Budget) checkReset() {
	now := b.now()
	if now.After(b.resetTime) {
		slog.Info("resetting request budget", "api", b.name, "used", b.used, "cache_hits", b.cacheHits)
		b.used = 0
		b.cacheHits = 0
		b.resetTime = now.Add(24 * time.Hour)
	}
}
