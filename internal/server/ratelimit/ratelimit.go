// Package ratelimit throttles API clients with tiered token buckets.
//
// Endpoints fall into three tiers with very different cost profiles: a
// synchronous training run holds the server for the whole pipeline, a
// scoring request runs one model prediction, and the read endpoints are
// cheap store lookups. Each tier carries its own budget so a burst of
// reads can never starve training, and vice versa.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Info describes the budget state of the matched tier after a request.
type Info struct {
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// bucket tracks one client's token balance within a tier.
type bucket struct {
	tokens  float64
	updated time.Time
	touched time.Time
}

// Limiter enforces the configured tier budgets per client.
type Limiter struct {
	cfg *Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	sweepStop chan struct{}
	stopOnce  sync.Once
}

// NewLimiter builds a limiter from cfg, filling in defaults for zero
// fields. A nil cfg yields the default configuration.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.Rules == nil {
		c.Rules = DefaultRules()
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = defaultReadLimit
	}
	if c.ReadWindow <= 0 {
		c.ReadWindow = defaultReadWindow
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = defaultIdleTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}

	l := &Limiter{
		cfg:       &c,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
		sweepStop: make(chan struct{}),
	}
	if c.Enabled {
		go l.sweepLoop()
	}
	return l
}

// Allow reports whether the client may proceed with a request for path
// and method, charging one token against the matched tier's budget.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.cfg.Enabled || l.cfg.isExempt(path) {
		return true, Info{}
	}
	if l.cfg.Blocked[clientID] {
		return false, Info{}
	}
	if l.cfg.Trusted[clientID] {
		return true, Info{}
	}

	rule := l.cfg.match(path, method)
	if rule.Limit <= 0 {
		return true, Info{}
	}

	now := l.now()
	capacity := float64(rule.burst())
	rate := float64(rule.Limit) / rule.Window.Seconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	key := clientID + "|" + string(rule.Tier)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, updated: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(capacity, b.tokens+now.Sub(b.updated).Seconds()*rate)
	b.updated = now
	b.touched = now

	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}

	info := Info{
		Limit:     rule.Limit,
		Remaining: int(b.tokens),
		ResetTime: now.Add(refillWait(capacity-b.tokens, rate)),
	}
	if !allowed {
		info.RetryAfter = refillWait(1-b.tokens, rate)
		if info.RetryAfter < time.Second {
			info.RetryAfter = time.Second
		}
	}
	return allowed, info
}

// refillWait converts a token deficit into a wait at the given refill
// rate.
func refillWait(deficit, rate float64) time.Duration {
	if deficit <= 0 {
		return 0
	}
	return time.Duration(deficit / rate * float64(time.Second))
}

// sweepLoop periodically drops buckets of clients idle past IdleTTL.
func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep(l.now())
		case <-l.sweepStop:
			return
		}
	}
}

func (l *Limiter) sweep(now time.Time) {
	cutoff := now.Add(-l.cfg.IdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.touched.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop terminates the background sweeper. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.sweepStop) })
}
