package types

import "time"

// Factor is one feature's contribution to a model decision, signed: a
// positive value pushed the default probability up.
type Factor struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Assessment is the enhanced model's score envelope for one applicant.
type Assessment struct {
	Probability float64   `json:"probability"`
	CreditScore int       `json:"credit_score"`
	Baseline    float64   `json:"baseline,omitempty"`
	TopFactors  []Factor  `json:"top_factors,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ComplianceFinding is the outcome of one regulatory check.
type ComplianceFinding struct {
	Check    string `json:"check"`
	Passed   bool   `json:"passed"`
	Required bool   `json:"required"`
	Severity string `json:"severity"`
	Details  string `json:"details,omitempty"`
}

// ComplianceReport aggregates check findings for one application.
type ComplianceReport struct {
	Compliant bool                `json:"compliant"`
	Findings  []ComplianceFinding `json:"findings"`
	AuditID   string              `json:"audit_id"`
	CheckedAt time.Time           `json:"checked_at"`
}

// ApplicationResult is the full outcome of processing one loan
// application through the lending pipeline.
type ApplicationResult struct {
	ApplicationID    string             `json:"application_id"`
	BorrowerID       string             `json:"borrower_id"`
	ProcessedAt      time.Time          `json:"processing_timestamp"`
	TraditionalScore float64            `json:"traditional_score"`
	AlternativeScore float64            `json:"alternative_data_score"`
	CategoryScores   map[string]float64 `json:"alternative_data_individual_scores"`
	EnhancedScore    float64            `json:"enhanced_score"`
	Decision         string             `json:"decision"`
	Assessment       *Assessment        `json:"assessment,omitempty"`
	Compliant        bool               `json:"is_compliant"`
	Compliance       *ComplianceReport  `json:"compliance_results,omitempty"`
	Documents        map[string]string  `json:"documents,omitempty"`
}
