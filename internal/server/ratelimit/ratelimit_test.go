package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frozenLimiter builds a limiter whose clock only moves when the test
// advances it. The background sweeper is stopped; tests drive sweeps
// directly.
func frozenLimiter(t *testing.T, cfg *Config) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(cfg)
	l.Stop()
	clock := time.Now()
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestAllow_ReadTierExhaustsBudget(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{Enabled: true, ReadLimit: 3, ReadWindow: time.Minute})

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("client", "/assessments", "GET")
		require.True(t, allowed, "request %d", i)
		assert.Equal(t, 3, info.Limit)
	}

	allowed, info := l.Allow("client", "/assessments", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 3, info.Limit)
	assert.Equal(t, 0, info.Remaining)
	assert.GreaterOrEqual(t, info.RetryAfter, time.Second)
}

func TestAllow_TrainingBurstAndRefill(t *testing.T) {
	l, clock := frozenLimiter(t, DefaultConfig())

	// Burst budget of 2 despite the hourly limit of 10
	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("client", "/runs", "POST")
		require.True(t, allowed, "request %d", i)
	}
	allowed, info := l.Allow("client", "/runs", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 10, info.Limit)

	// One token refills every 6 minutes at 10/hour
	*clock = clock.Add(7 * time.Minute)
	allowed, _ = l.Allow("client", "/runs", "POST")
	assert.True(t, allowed)
}

func TestAllow_ScoringPrefixAndMethod(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{Enabled: true, Rules: DefaultRules(), ReadLimit: 5, ReadWindow: time.Minute})

	allowed, info := l.Allow("client", "/applications/score", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 60, info.Limit)

	// A GET on the same path is not a scoring request
	allowed, info = l.Allow("client", "/applications/score", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 5, info.Limit)
}

func TestAllow_TiersChargeSeparateBudgets(t *testing.T) {
	l, _ := frozenLimiter(t, DefaultConfig())

	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("client", "/runs", "POST")
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("client", "/runs", "POST")
	require.False(t, allowed, "training budget spent")

	allowed, info := l.Allow("client", "/applications/score", "POST")
	assert.True(t, allowed, "scoring budget untouched")
	assert.Equal(t, 60, info.Limit)

	allowed, _ = l.Allow("client", "/assessments", "GET")
	assert.True(t, allowed, "read budget untouched")
}

func TestAllow_ExemptPath(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{Enabled: true, ReadLimit: 1, ReadWindow: time.Minute, Exempt: []string{"/health"}})

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("client", "/health", "GET")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestAllow_TrustedAndBlockedClients(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{
		Enabled:    true,
		ReadLimit:  1,
		ReadWindow: time.Minute,
		Trusted:    map[string]bool{"10.0.0.1": true},
		Blocked:    map[string]bool{"10.0.0.9": true},
	})

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/assessments", "GET")
		assert.True(t, allowed)
	}

	allowed, _ := l.Allow("10.0.0.9", "/assessments", "GET")
	assert.False(t, allowed)
}

func TestAllow_Disabled(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{Enabled: false})

	for i := 0; i < 100; i++ {
		allowed, info := l.Allow("client", "/runs", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestAllow_PerClientBudgets(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{Enabled: true, ReadLimit: 2, ReadWindow: time.Minute})

	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("alice", "/assessments", "GET")
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("alice", "/assessments", "GET")
	assert.False(t, allowed)

	allowed, _ = l.Allow("bob", "/assessments", "GET")
	assert.True(t, allowed)
}

func TestAllow_ConcurrentSpendsExactBudget(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{Enabled: true, ReadLimit: 10, ReadWindow: time.Minute})

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := l.Allow("client", "/assessments", "GET"); allowed {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, granted)
}

func TestSweep_DropsIdleBuckets(t *testing.T) {
	l, clock := frozenLimiter(t, DefaultConfig())

	_, _ = l.Allow("stale", "/assessments", "GET")
	*clock = clock.Add(30 * time.Minute)
	_, _ = l.Allow("fresh", "/assessments", "GET")

	l.sweep(clock.Add(45 * time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 1)
	_, kept := l.buckets[fmt.Sprintf("fresh|%s", TierRead)]
	assert.True(t, kept)
}

func TestNewLimiter_NilConfigUsesDefaults(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	clock := time.Now()
	l.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("client", "/runs", "POST")
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("client", "/runs", "POST")
	assert.False(t, allowed)

	allowed, info := l.Allow("client", "/health", "GET")
	assert.True(t, allowed)
	assert.Zero(t, info.Limit)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_TRAIN_PER_HOUR", "4")
	t.Setenv("RATE_LIMIT_TRAIN_BURST", "1")
	t.Setenv("RATE_LIMIT_SCORE_PER_MINUTE", "120")
	t.Setenv("RATE_LIMIT_SCORE_BURST", "20")
	t.Setenv("RATE_LIMIT_READ_PER_MINUTE", "600")
	t.Setenv("RATE_LIMIT_TRUSTED", "10.0.0.1, 10.0.0.2")
	t.Setenv("RATE_LIMIT_BLOCKED", "192.0.2.7")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 600, cfg.ReadLimit)
	assert.True(t, cfg.Trusted["10.0.0.1"])
	assert.True(t, cfg.Trusted["10.0.0.2"])
	assert.True(t, cfg.Blocked["192.0.2.7"])

	byTier := map[Tier]Rule{}
	for _, r := range cfg.Rules {
		byTier[r.Tier] = r
	}
	assert.Equal(t, 4, byTier[TierTraining].Limit)
	assert.Equal(t, 1, byTier[TierTraining].Burst)
	assert.Equal(t, 120, byTier[TierScoring].Limit)
	assert.Equal(t, 20, byTier[TierScoring].Burst)
}

func TestLoadConfig_DefaultsWithoutEnvironment(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_TRUSTED", "")
	t.Setenv("RATE_LIMIT_BLOCKED", "")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, defaultReadLimit, cfg.ReadLimit)
	assert.Contains(t, cfg.Exempt, "/health")
	assert.Nil(t, cfg.Trusted)
	assert.Nil(t, cfg.Blocked)
}
