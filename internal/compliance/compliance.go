// Package compliance runs regulatory checks over a scored loan
// application before a decision is released.
package compliance

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/credit-scorer/internal/types"
)

// Finding severities, worst first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Envelope carries everything the checks inspect for one application.
type Envelope struct {
	Application          *types.LoanApplication
	ModelFeatures        []string
	Decision             string
	TraditionalScore     float64
	AlternativeScore     float64
	EnhancedScore        float64
	AdverseActionFactors []string
	ModelDocumentation   map[string]string
}

// Check is one regulatory rule evaluated against an envelope.
type Check interface {
	Name() string
	Description() string
	Severity() string
	Required() bool
	Evaluate(env *Envelope) types.ComplianceFinding
}

// AuditRecord is one entry in the framework's audit trail.
type AuditRecord struct {
	ID      uuid.UUID `json:"id"`
	Time    time.Time `json:"time"`
	Check   string    `json:"check"`
	Passed  bool      `json:"passed"`
	Details string    `json:"details,omitempty"`
}

// Framework runs a fixed set of checks and keeps an audit trail of every
// evaluation.
type Framework struct {
	checks []Check

	mu    sync.Mutex
	audit []AuditRecord
}

// NewFramework returns a framework with the default check set.
func NewFramework() *Framework {
	return &Framework{checks: DefaultChecks()}
}

// Checks lists the registered checks.
func (f *Framework) Checks() []Check { return f.checks }

// Run evaluates every check. The application is compliant when no
// required check fails; findings are ordered by severity, then name.
func (f *Framework) Run(env *Envelope) *types.ComplianceReport {
	report := &types.ComplianceReport{
		Compliant: true,
		AuditID:   uuid.New().String(),
		CheckedAt: time.Now().UTC(),
	}

	for _, check := range f.checks {
		finding := check.Evaluate(env)
		finding.Check = check.Name()
		finding.Required = check.Required()
		finding.Severity = check.Severity()
		report.Findings = append(report.Findings, finding)

		if !finding.Passed && check.Required() {
			report.Compliant = false
		}
		f.record(finding)
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		a, b := report.Findings[i], report.Findings[j]
		if severityRank(a.Severity) != severityRank(b.Severity) {
			return severityRank(a.Severity) < severityRank(b.Severity)
		}
		return a.Check < b.Check
	})

	if !report.Compliant {
		log.Printf("compliance failure for application %s", applicationID(env))
	}
	return report
}

// AuditTrail returns a copy of the recorded evaluations.
func (f *Framework) AuditTrail() []AuditRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]AuditRecord, len(f.audit))
	copy(out, f.audit)
	return out
}

func (f *Framework) record(finding types.ComplianceFinding) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audit = append(f.audit, AuditRecord{
		ID:      uuid.New(),
		Time:    time.Now().UTC(),
		Check:   finding.Check,
		Passed:  finding.Passed,
		Details: finding.Details,
	})
}

func severityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

func applicationID(env *Envelope) string {
	if env != nil && env.Application != nil {
		return env.Application.ApplicationID
	}
	return "unknown"
}

func pass(details string) types.ComplianceFinding {
	return types.ComplianceFinding{Passed: true, Details: details}
}

func fail(format string, args ...any) types.ComplianceFinding {
	return types.ComplianceFinding{Passed: false, Details: fmt.Sprintf(format, args...)}
}

func matchFeatures(features, patterns []string) []string {
	var hits []string
	for _, f := range features {
		lower := strings.ToLower(f)
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				hits = append(hits, f)
				break
			}
		}
	}
	return hits
}
