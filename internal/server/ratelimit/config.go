package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the read tier and bucket housekeeping.
const (
	defaultReadLimit     = 300
	defaultReadWindow    = time.Minute
	defaultIdleTTL       = time.Hour
	defaultSweepInterval = 5 * time.Minute
)

// Config holds the limiter configuration.
type Config struct {
	Enabled bool

	// Rules claim specific endpoints for the training and scoring
	// tiers. Unclaimed requests share the read budget below.
	Rules      []Rule
	ReadLimit  int
	ReadWindow time.Duration

	// Exempt paths bypass limiting entirely, e.g. the health probe.
	Exempt []string

	// Trusted clients bypass limiting; blocked clients are always
	// refused.
	Trusted map[string]bool
	Blocked map[string]bool

	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// DefaultRules returns the built-in tier budgets: training runs are
// expensive and synchronous, so they get a small hourly allowance with
// a tight burst; scoring is a per-minute budget with room for spikes.
func DefaultRules() []Rule {
	return []Rule{
		{Tier: TierTraining, Method: http.MethodPost, Path: "/runs", Limit: 10, Window: time.Hour, Burst: 2},
		{Tier: TierScoring, Method: http.MethodPost, Path: "/applications/", Prefix: true, Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// DefaultConfig returns the limiter defaults with limiting enabled.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		Rules:         DefaultRules(),
		ReadLimit:     defaultReadLimit,
		ReadWindow:    defaultReadWindow,
		Exempt:        []string{"/health"},
		IdleTTL:       defaultIdleTTL,
		SweepInterval: defaultSweepInterval,
	}
}

// LoadConfig builds the limiter configuration from the environment,
// starting from the defaults.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.Enabled)

	for i := range cfg.Rules {
		switch cfg.Rules[i].Tier {
		case TierTraining:
			cfg.Rules[i].Limit = envInt("RATE_LIMIT_TRAIN_PER_HOUR", cfg.Rules[i].Limit)
			cfg.Rules[i].Burst = envInt("RATE_LIMIT_TRAIN_BURST", cfg.Rules[i].Burst)
		case TierScoring:
			cfg.Rules[i].Limit = envInt("RATE_LIMIT_SCORE_PER_MINUTE", cfg.Rules[i].Limit)
			cfg.Rules[i].Burst = envInt("RATE_LIMIT_SCORE_BURST", cfg.Rules[i].Burst)
		}
	}
	cfg.ReadLimit = envInt("RATE_LIMIT_READ_PER_MINUTE", cfg.ReadLimit)

	cfg.Trusted = clientSet(os.Getenv("RATE_LIMIT_TRUSTED"))
	cfg.Blocked = clientSet(os.Getenv("RATE_LIMIT_BLOCKED"))

	return cfg
}

// clientSet parses a comma-separated client list into a lookup set.
func clientSet(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			set[entry] = true
		}
	}
	return set
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
