package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credit-scorer/internal/dataset"
)

func buildTable(t *testing.T, numeric []string, categorical []string) *dataset.Table {
	t.Helper()
	tbl := dataset.New()
	for _, name := range numeric {
		require.NoError(t, tbl.AddNumeric(name, []float64{1, 2}))
	}
	for _, name := range categorical {
		require.NoError(t, tbl.AddCategorical(name, []string{"a", "b"}))
	}
	return tbl
}

func TestClassify_TraditionalAndAlternative(t *testing.T) {
	tbl := buildTable(t,
		[]string{"credit_score", "loan_amount", "digital_footprint_device_age_months"},
		[]string{"housing_status", "behavioral_spending_pattern"},
	)

	tax := Classify(tbl)

	assert.Equal(t, []string{"credit_score", "loan_amount"}, tax.TraditionalNumeric)
	assert.Equal(t, []string{"digital_footprint_device_age_months"}, tax.AlternativeNumeric)
	assert.Equal(t, []string{"housing_status"}, tax.TraditionalCategorical)
	assert.Equal(t, []string{"behavioral_spending_pattern"}, tax.AlternativeCategorical)
}

func TestClassify_UnmatchedDefaultsToTraditional(t *testing.T) {
	tbl := buildTable(t, []string{"zodiac_sign_index"}, nil)

	tax := Classify(tbl)

	assert.Equal(t, []string{"zodiac_sign_index"}, tax.TraditionalNumeric)
	assert.Empty(t, tax.AlternativeNumeric)
}

func TestClassify_TraditionalPatternWinsOverAlternative(t *testing.T) {
	// The traditional list is checked first, so names containing both kinds
	// of markers land in the traditional group.
	tbl := buildTable(t, []string{
		"transaction_income_stability",
		"education_employment_job_stability_score",
		"transaction_savings_rate",
	}, nil)

	tax := Classify(tbl)

	assert.Contains(t, tax.TraditionalNumeric, "transaction_income_stability")
	assert.Contains(t, tax.TraditionalNumeric, "education_employment_job_stability_score")
	assert.Contains(t, tax.AlternativeNumeric, "transaction_savings_rate")
}

func TestClassify_EmptyTable(t *testing.T) {
	tax := Classify(dataset.New())

	assert.Empty(t, tax.TraditionalNumeric)
	assert.Empty(t, tax.TraditionalCategorical)
	assert.Empty(t, tax.AlternativeNumeric)
	assert.Empty(t, tax.AlternativeCategorical)
}

func TestClassify_EveryColumnInExactlyOneSet(t *testing.T) {
	tbl := buildTable(t,
		[]string{"credit_score", "transaction_savings_rate", "unknown_metric"},
		[]string{"device_type", "housing_status"},
	)

	tax := Classify(tbl)

	total := len(tax.TraditionalNumeric) + len(tax.TraditionalCategorical) +
		len(tax.AlternativeNumeric) + len(tax.AlternativeCategorical)
	assert.Equal(t, tbl.NumCols(), total)

	seen := map[string]bool{}
	for _, group := range [][]string{
		tax.TraditionalNumeric, tax.TraditionalCategorical,
		tax.AlternativeNumeric, tax.AlternativeCategorical,
	} {
		for _, name := range group {
			assert.False(t, seen[name], "column %s assigned twice", name)
			seen[name] = true
		}
	}
}

func TestTaxonomy_GroupAccessors(t *testing.T) {
	tax := Taxonomy{
		TraditionalNumeric:     []string{"credit_score"},
		TraditionalCategorical: []string{"housing_status"},
		AlternativeNumeric:     []string{"transaction_savings_rate"},
		AlternativeCategorical: []string{"device_type"},
	}

	assert.Equal(t, []string{"credit_score", "housing_status"}, tax.Traditional())
	assert.Equal(t, []string{"transaction_savings_rate", "device_type"}, tax.Alternative())
	assert.Equal(t, []string{"credit_score", "transaction_savings_rate"}, tax.Numeric())
	assert.Equal(t, []string{"housing_status", "device_type"}, tax.Categorical())
}
