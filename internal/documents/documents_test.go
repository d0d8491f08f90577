package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credit-scorer/internal/types"
)

func TestAdverseActionNotice_ContainsDisclosures(t *testing.T) {
	g := NewGenerator()
	notice, err := g.AdverseActionNotice(AdverseActionData{
		ApplicationID: "APP-9",
		ApplicantName: "Jane Roe",
		CreditScore:   580,
		Factors:       []string{"debt to income high", "recent defaults"},
	})
	require.NoError(t, err)

	assert.Contains(t, notice, "NOTICE OF ADVERSE ACTION")
	assert.Contains(t, notice, "Jane Roe")
	assert.Contains(t, notice, "580")
	assert.Contains(t, notice, "300-850")
	assert.Contains(t, notice, "- debt to income high")
	assert.Contains(t, notice, "EQUAL CREDIT OPPORTUNITY ACT")
}

func TestAdverseActionNotice_DefaultsAndFactorCap(t *testing.T) {
	g := NewGenerator()
	notice, err := g.AdverseActionNotice(AdverseActionData{
		ApplicationID: "APP-10",
		CreditScore:   540,
		Factors:       []string{"a", "b", "c", "d", "e", "f"},
	})
	require.NoError(t, err)

	assert.Contains(t, notice, "Applicant")
	assert.Contains(t, notice, "- d")
	assert.NotContains(t, notice, "- e")
}

func TestApprovalLetter_ConditionalWording(t *testing.T) {
	g := NewGenerator()
	letter, err := g.ApprovalLetter(ApprovalData{
		ApplicationID: "APP-11",
		ApplicantName: "Sam Doe",
		LoanAmount:    25000,
		InterestRate:  5.5,
		TermDays:      365,
		CreditScore:   760,
	})
	require.NoError(t, err)
	assert.Contains(t, letter, "has been\napproved")
	assert.Contains(t, letter, "$25000.00")

	conditional, err := g.ApprovalLetter(ApprovalData{
		ApplicationID: "APP-12",
		ApplicantName: "Sam Doe",
		Conditional:   true,
	})
	require.NoError(t, err)
	assert.Contains(t, conditional, "conditionally approved")
	assert.Contains(t, conditional, "CONDITIONAL APPROVAL")
}

func TestModelDocumentation_ListsFeatures(t *testing.T) {
	g := NewGenerator()
	doc, err := g.ModelDocumentation(ModelDocData{
		ModelType:          "ensemble",
		PerformanceMetrics: "roc_auc=0.84 f1=0.61",
		FeatureList:        []string{"credit_score", "income"},
		TrainingSamples:    5000,
	})
	require.NoError(t, err)
	assert.Contains(t, doc, "ensemble")
	assert.Contains(t, doc, "credit_score, income")
	assert.Contains(t, doc, "5000")
}

func TestPrincipalFactors_PositiveValuesOnly(t *testing.T) {
	factors := []types.Factor{
		{Feature: "debt_to_income", Value: 0.4},
		{Feature: "income", Value: -0.3},
		{Feature: "credit_score", Value: 0.2},
	}
	out := PrincipalFactors(factors)
	assert.Equal(t, []string{"debt to income", "credit score"}, out)
}

func TestPrincipalFactors_FallbackWhenNoAdverse(t *testing.T) {
	out := PrincipalFactors([]types.Factor{{Feature: "income", Value: -0.5}})
	assert.Equal(t, fallbackReasons, out)

	assert.Equal(t, fallbackReasons, PrincipalFactors(nil))
}

func TestPrincipalFactors_CapsAtFour(t *testing.T) {
	factors := make([]types.Factor, 6)
	for i := range factors {
		factors[i] = types.Factor{Feature: "f", Value: 1}
	}
	assert.Len(t, PrincipalFactors(factors), 4)
}
