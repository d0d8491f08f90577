// Package taxonomy partitions dataset columns into traditional and
// alternative feature groups based on name patterns, crossed with the
// numeric/categorical kind of each column.
package taxonomy

import (
	"strings"

	"github.com/jonathan/credit-scorer/internal/dataset"
)

// Patterns identifying traditional credit features. Tested before the
// alternative list; first substring match wins.
var traditionalPatterns = []string{
	"credit_score",
	"income",
	"debt",
	"loan_amount",
	"loan_term",
	"interest_rate",
	"payment_history",
	"utilization",
	"delinquency",
	"public_record",
	"inquiry",
	"employment",
	"housing",
}

// Patterns identifying alternative data features.
var alternativePatterns = []string{
	"digital_footprint",
	"transaction",
	"utility_payment",
	"education_employment",
	"social_media",
	"device",
	"behavioral",
	"psychometric",
	"geolocation",
	"alternative",
}

// Taxonomy is the four-way column partition. Every column of the classified
// table appears in exactly one of the four sets; a column matching neither
// pattern list is treated as traditional.
type Taxonomy struct {
	TraditionalNumeric     []string `json:"traditional_numeric"`
	TraditionalCategorical []string `json:"traditional_categorical"`
	AlternativeNumeric     []string `json:"alternative_numeric"`
	AlternativeCategorical []string `json:"alternative_categorical"`
}

// Classify partitions the table's columns. An empty table yields four empty
// sets; classification never fails.
func Classify(t *dataset.Table) Taxonomy {
	var tax Taxonomy
	for _, name := range t.Names() {
		col, _ := t.Column(name)
		alternative := isAlternative(name)
		numeric := col.Kind == dataset.Numeric

		switch {
		case alternative && numeric:
			tax.AlternativeNumeric = append(tax.AlternativeNumeric, name)
		case alternative:
			tax.AlternativeCategorical = append(tax.AlternativeCategorical, name)
		case numeric:
			tax.TraditionalNumeric = append(tax.TraditionalNumeric, name)
		default:
			tax.TraditionalCategorical = append(tax.TraditionalCategorical, name)
		}
	}
	return tax
}

func isAlternative(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range traditionalPatterns {
		if strings.Contains(lower, p) {
			return false
		}
	}
	for _, p := range alternativePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	// Unmatched columns default to traditional.
	return false
}

// Traditional returns all traditional column names, numeric first.
func (x Taxonomy) Traditional() []string {
	out := make([]string, 0, len(x.TraditionalNumeric)+len(x.TraditionalCategorical))
	out = append(out, x.TraditionalNumeric...)
	out = append(out, x.TraditionalCategorical...)
	return out
}

// Alternative returns all alternative column names, numeric first.
func (x Taxonomy) Alternative() []string {
	out := make([]string, 0, len(x.AlternativeNumeric)+len(x.AlternativeCategorical))
	out = append(out, x.AlternativeNumeric...)
	out = append(out, x.AlternativeCategorical...)
	return out
}

// Numeric returns all numeric column names, traditional first.
func (x Taxonomy) Numeric() []string {
	out := make([]string, 0, len(x.TraditionalNumeric)+len(x.AlternativeNumeric))
	out = append(out, x.TraditionalNumeric...)
	out = append(out, x.AlternativeNumeric...)
	return out
}

// Categorical returns all categorical column names, traditional first.
func (x Taxonomy) Categorical() []string {
	out := make([]string, 0, len(x.TraditionalCategorical)+len(x.AlternativeCategorical))
	out = append(out, x.TraditionalCategorical...)
	out = append(out, x.AlternativeCategorical...)
	return out
}
