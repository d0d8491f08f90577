package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credit-scorer/internal/types"
)

func cleanEnvelope() *Envelope {
	return &Envelope{
		Application: &types.LoanApplication{
			ApplicationID: "APP-1",
			BorrowerID:    "BOR-1",
			LoanAmount:    25000,
			InterestRate:  5.5,
			TermDays:      365,
		},
		ModelFeatures:    []string{"credit_score", "income", "debt_to_income", "transaction_income_stability"},
		Decision:         types.DecisionApproved,
		TraditionalScore: 72,
		AlternativeScore: 65,
		EnhancedScore:    710,
		ModelDocumentation: map[string]string{
			"model_type":          "ensemble",
			"training_date":       "2025-06-01",
			"performance_metrics": "roc_auc=0.84",
			"feature_list":        "credit_score,income",
		},
	}
}

func TestRun_CleanEnvelopeCompliant(t *testing.T) {
	report := NewFramework().Run(cleanEnvelope())
	require.NotNil(t, report)
	assert.True(t, report.Compliant)
	assert.Len(t, report.Findings, 7)
	assert.NotEmpty(t, report.AuditID)
	for _, f := range report.Findings {
		assert.True(t, f.Passed, f.Check)
	}
}

func TestRun_FindingsOrderedBySeverityThenName(t *testing.T) {
	report := NewFramework().Run(cleanEnvelope())
	ranks := make([]int, len(report.Findings))
	for i, f := range report.Findings {
		ranks[i] = severityRank(f.Severity)
	}
	for i := 1; i < len(ranks); i++ {
		require.LessOrEqual(t, ranks[i-1], ranks[i])
		if ranks[i-1] == ranks[i] {
			assert.Less(t, report.Findings[i-1].Check, report.Findings[i].Check)
		}
	}
}

func TestEqualOpportunity_ProhibitedFeatureFails(t *testing.T) {
	env := cleanEnvelope()
	env.ModelFeatures = append(env.ModelFeatures, "applicant_gender")

	report := NewFramework().Run(env)
	assert.False(t, report.Compliant)
	assert.False(t, findingFor(t, report, "equal_opportunity").Passed)
}

func TestEqualOpportunity_ProxyFeatureWarnsButPasses(t *testing.T) {
	env := cleanEnvelope()
	env.ModelFeatures = append(env.ModelFeatures, "home_zip_code")

	finding := findingFor(t, NewFramework().Run(env), "equal_opportunity")
	assert.True(t, finding.Passed)
	assert.Contains(t, finding.Details, "proxy")
}

func TestFairCreditReporting_DeclinedWithoutFactorsFails(t *testing.T) {
	env := cleanEnvelope()
	env.Decision = types.DecisionDeclined

	report := NewFramework().Run(env)
	assert.False(t, report.Compliant)

	env.AdverseActionFactors = []string{"debt_to_income", "credit_score"}
	report = NewFramework().Run(env)
	assert.True(t, findingFor(t, report, "fair_credit_reporting").Passed)
}

func TestTruthInLending_MissingTermFails(t *testing.T) {
	env := cleanEnvelope()
	env.Application.TermDays = 0

	finding := findingFor(t, NewFramework().Run(env), "truth_in_lending")
	assert.False(t, finding.Passed)
	assert.Contains(t, finding.Details, "term_days")
}

func TestAntiMoneyLaundering_FlagsWithoutFailing(t *testing.T) {
	env := cleanEnvelope()
	env.Application.LoanAmount = 50000
	report := NewFramework().Run(env)
	finding := findingFor(t, report, "anti_money_laundering")
	assert.True(t, finding.Passed)
	assert.False(t, finding.Required, "reporting flags are advisory")
	assert.Contains(t, finding.Details, "transaction report")
	assert.True(t, report.Compliant)

	env.Application.LoanAmount = 9500
	finding = findingFor(t, NewFramework().Run(env), "anti_money_laundering")
	assert.True(t, finding.Passed)
	assert.Contains(t, finding.Details, "structuring")
}

func TestModelRiskGovernance_MissingDocumentationFails(t *testing.T) {
	env := cleanEnvelope()
	delete(env.ModelDocumentation, "performance_metrics")

	finding := findingFor(t, NewFramework().Run(env), "model_risk_governance")
	assert.False(t, finding.Passed)
	assert.Contains(t, finding.Details, "performance_metrics")
}

func TestDataPrivacy_PIIFeatureFails(t *testing.T) {
	env := cleanEnvelope()
	env.ModelFeatures = append(env.ModelFeatures, "applicant_ssn")

	report := NewFramework().Run(env)
	assert.False(t, report.Compliant)
	assert.False(t, findingFor(t, report, "data_privacy").Passed)
}

func TestScoreConsistency_OutOfRangeFails(t *testing.T) {
	env := cleanEnvelope()
	env.EnhancedScore = 900

	finding := findingFor(t, NewFramework().Run(env), "score_consistency")
	assert.False(t, finding.Passed)
}

func TestAuditTrail_RecordsEveryEvaluation(t *testing.T) {
	f := NewFramework()
	f.Run(cleanEnvelope())
	f.Run(cleanEnvelope())

	trail := f.AuditTrail()
	assert.Len(t, trail, 14)
	for _, rec := range trail {
		assert.NotEmpty(t, rec.Check)
		assert.False(t, rec.Time.IsZero())
	}
}

func TestRun_NilEnvelopeFailsSafely(t *testing.T) {
	report := NewFramework().Run(nil)
	assert.False(t, report.Compliant)
}

func findingFor(t *testing.T, report *types.ComplianceReport, name string) types.ComplianceFinding {
	t.Helper()
	for _, f := range report.Findings {
		if f.Check == name {
			return f
		}
	}
	t.Fatalf("finding %s not present", name)
	return types.ComplianceFinding{}
}
