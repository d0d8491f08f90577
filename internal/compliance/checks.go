package compliance

import (
	"fmt"
	"strings"

	"github.com/jonathan/credit-scorer/internal/types"
)

// Regulation E-style thresholds for the anti-money-laundering check.
const (
	largeAmountThreshold = 10000
	structuringMargin    = 1000
)

// protectedCharacteristics are prohibited-basis terms that must never
// appear in a model feature name.
var protectedCharacteristics = []string{
	"race", "color", "religion", "national_origin", "sex", "gender",
	"marital_status", "age", "disability", "familial_status",
}

// proxyPatterns flag features likely to correlate with protected
// characteristics; they warn rather than fail.
var proxyPatterns = []string{
	"zip_code", "postal_code", "neighborhood", "geography", "location",
	"school", "college", "university", "occupation", "job_title",
	"language", "first_name", "last_name",
}

// piiPatterns are raw identifiers that must not feed the model directly.
var piiPatterns = []string{
	"email_address", "ssn", "social_security", "phone_number",
	"date_of_birth", "full_name", "street_address", "passport",
}

// modelDocumentationFields must be present for model-risk governance.
var modelDocumentationFields = []string{
	"model_type", "training_date", "performance_metrics", "feature_list",
}

// check is the shared base: name, description, severity, and whether a
// failure blocks the decision.
type check struct {
	name        string
	description string
	severity    string
	required    bool
	evaluate    func(env *Envelope) types.ComplianceFinding
}

func (c *check) Name() string        { return c.name }
func (c *check) Description() string { return c.description }
func (c *check) Severity() string    { return c.severity }
func (c *check) Required() bool      { return c.required }

func (c *check) Evaluate(env *Envelope) types.ComplianceFinding {
	if env == nil {
		return fail("no application envelope provided")
	}
	return c.evaluate(env)
}

// DefaultChecks returns the production check set.
func DefaultChecks() []Check {
	return []Check{
		&check{
			name:        "equal_opportunity",
			description: "Model features must not encode prohibited-basis characteristics",
			severity:    SeverityCritical,
			required:    true,
			evaluate:    checkEqualOpportunity,
		},
		&check{
			name:        "fair_credit_reporting",
			description: "Declined applicants must receive principal adverse action factors",
			severity:    SeverityHigh,
			required:    true,
			evaluate:    checkFairCreditReporting,
		},
		&check{
			name:        "truth_in_lending",
			description: "Amount, rate, and term must be disclosed on the application",
			severity:    SeverityHigh,
			required:    true,
			evaluate:    checkTruthInLending,
		},
		&check{
			name:        "anti_money_laundering",
			description: "Large or near-threshold amounts are flagged for reporting",
			severity:    SeverityCritical,
			// Advisory: a reporting flag alone never blocks the decision.
			required: false,
			evaluate: checkAntiMoneyLaundering,
		},
		&check{
			name:        "model_risk_governance",
			description: "Model documentation must carry the governance fields",
			severity:    SeverityHigh,
			required:    true,
			evaluate:    checkModelRiskGovernance,
		},
		&check{
			name:        "data_privacy",
			description: "Raw personally identifiable data must not feed the model",
			severity:    SeverityHigh,
			required:    true,
			evaluate:    checkDataPrivacy,
		},
		&check{
			name:        "score_consistency",
			description: "Reported scores must stay inside their declared ranges",
			severity:    SeverityMedium,
			required:    true,
			evaluate:    checkScoreConsistency,
		},
	}
}

func checkEqualOpportunity(env *Envelope) types.ComplianceFinding {
	if hits := matchFeatures(env.ModelFeatures, protectedCharacteristics); len(hits) > 0 {
		return fail("model uses prohibited-basis features: %s", strings.Join(hits, ", "))
	}
	if proxies := matchFeatures(env.ModelFeatures, proxyPatterns); len(proxies) > 0 {
		return pass(fmt.Sprintf("potential proxy variables detected: %s; disparate impact analysis recommended", strings.Join(proxies, ", ")))
	}
	return pass("no prohibited-basis features detected")
}

func checkFairCreditReporting(env *Envelope) types.ComplianceFinding {
	if env.Decision != types.DecisionDeclined {
		return pass("no adverse action taken")
	}
	if len(env.AdverseActionFactors) == 0 {
		return fail("adverse action taken without principal factors available")
	}
	return pass(fmt.Sprintf("%d principal factors available for adverse action notice", len(env.AdverseActionFactors)))
}

func checkTruthInLending(env *Envelope) types.ComplianceFinding {
	app := env.Application
	if app == nil {
		return fail("application data missing")
	}
	var missing []string
	if app.LoanAmount <= 0 {
		missing = append(missing, "loan_amount")
	}
	if app.InterestRate <= 0 {
		missing = append(missing, "interest_rate")
	}
	if app.TermDays <= 0 {
		missing = append(missing, "term_days")
	}
	if len(missing) > 0 {
		return fail("missing required disclosures: %s", strings.Join(missing, ", "))
	}
	return pass("amount, rate, and term disclosed")
}

func checkAntiMoneyLaundering(env *Envelope) types.ComplianceFinding {
	app := env.Application
	if app == nil {
		return fail("application data missing")
	}
	switch {
	case app.LoanAmount >= largeAmountThreshold:
		return pass(fmt.Sprintf("amount %.0f meets reporting threshold; currency transaction report required", app.LoanAmount))
	case app.LoanAmount >= largeAmountThreshold-structuringMargin:
		return pass(fmt.Sprintf("amount %.0f just under reporting threshold; review for structuring", app.LoanAmount))
	default:
		return pass("no reporting indicators")
	}
}

func checkModelRiskGovernance(env *Envelope) types.ComplianceFinding {
	var missing []string
	for _, field := range modelDocumentationFields {
		if env.ModelDocumentation[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fail("model documentation missing fields: %s", strings.Join(missing, ", "))
	}
	return pass("model documentation complete")
}

func checkDataPrivacy(env *Envelope) types.ComplianceFinding {
	if hits := matchFeatures(env.ModelFeatures, piiPatterns); len(hits) > 0 {
		return fail("raw PII among model features: %s", strings.Join(hits, ", "))
	}
	return pass("no raw PII among model features")
}

func checkScoreConsistency(env *Envelope) types.ComplianceFinding {
	var issues []string
	if env.TraditionalScore < 0 || env.TraditionalScore > 100 {
		issues = append(issues, fmt.Sprintf("traditional score %.1f outside [0,100]", env.TraditionalScore))
	}
	if env.AlternativeScore < 0 || env.AlternativeScore > 100 {
		issues = append(issues, fmt.Sprintf("alternative score %.1f outside [0,100]", env.AlternativeScore))
	}
	if env.EnhancedScore < 300 || env.EnhancedScore > 850 {
		issues = append(issues, fmt.Sprintf("enhanced score %.1f outside [300,850]", env.EnhancedScore))
	}
	if len(issues) > 0 {
		return fail("%s", strings.Join(issues, "; "))
	}
	return pass("all scores within declared bounds")
}
