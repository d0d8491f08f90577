package ratelimit

import (
	"strings"
	"time"
)

// Tier names a budget class of endpoints.
type Tier string

const (
	// TierTraining covers the synchronous training endpoint, which runs
	// the full pipeline inside the request.
	TierTraining Tier = "training"
	// TierScoring covers application scoring requests.
	TierScoring Tier = "scoring"
	// TierRead covers everything else: store lookups and listings.
	TierRead Tier = "read"
)

// Rule binds an endpoint pattern to a tier budget.
type Rule struct {
	Tier   Tier
	Method string
	Path   string
	Prefix bool
	Limit  int
	Window time.Duration
	Burst  int
}

// burst is the bucket capacity: the explicit burst budget when set,
// otherwise the full window limit.
func (r Rule) burst() int {
	if r.Burst > 0 {
		return r.Burst
	}
	return r.Limit
}

func (r Rule) matches(path, method string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	if r.Prefix {
		return strings.HasPrefix(path, r.Path)
	}
	return path == r.Path
}

// match returns the first rule covering the request. Requests no rule
// claims share the read tier budget.
func (c *Config) match(path, method string) Rule {
	for _, r := range c.Rules {
		if r.matches(path, method) {
			return r
		}
	}
	return Rule{Tier: TierRead, Limit: c.ReadLimit, Window: c.ReadWindow}
}

func (c *Config) isExempt(path string) bool {
	for _, p := range c.Exempt {
		if p == path {
			return true
		}
	}
	return false
}
