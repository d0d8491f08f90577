// Package synthetic generates labeled loan datasets for training and
// demos. Distributions and the default-probability rule mirror the
// production data profile, so models trained on generated data behave
// sensibly on real applications.
package synthetic

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jonathan/credit-scorer/internal/dataset"
)

// TargetColumn is the label column name in CSV exports.
const TargetColumn = "default"

var termChoices = []float64{30, 60, 90, 180, 365, 730}

// Generate returns n labeled applicant rows. Traditional credit columns
// are always present; includeAlternative adds the sixteen prefixed
// alternative-data columns. Deterministic for a given seed.
func Generate(n int, seed int64, includeAlternative bool) (*dataset.Table, []int, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	rng := rand.New(rand.NewSource(seed))

	loanAmount := make([]float64, n)
	interestRate := make([]float64, n)
	termDays := make([]float64, n)
	creditScore := make([]float64, n)
	income := make([]float64, n)
	debtToIncome := make([]float64, n)
	employmentYears := make([]float64, n)
	isCollateralized := make([]float64, n)
	previousLoans := make([]float64, n)
	previousDefaults := make([]float64, n)
	collateralValue := make([]float64, n)

	for i := 0; i < n; i++ {
		loanAmount[i] = 1000 + rng.Float64()*49000
		interestRate[i] = 1 + rng.Float64()*19
		termDays[i] = termChoices[rng.Intn(len(termChoices))]
		creditScore[i] = clamp(650+rng.NormFloat64()*100, 300, 850)
		income[i] = math.Exp(10 + rng.NormFloat64())
		debtToIncome[i] = rng.Float64() * 0.6
		employmentYears[i] = rng.ExpFloat64() * 5
		isCollateralized[i] = bernoulli(rng, 0.3)
		previousLoans[i] = float64(poisson(rng, 2))
		previousDefaults[i] = float64(poisson(rng, 0.5))
		if isCollateralized[i] == 1 {
			collateralValue[i] = loanAmount[i] * (1 + rng.Float64())
		}
	}

	table := dataset.New()
	cols := []struct {
		name   string
		values []float64
	}{
		{"loan_amount", loanAmount},
		{"interest_rate", interestRate},
		{"term_days", termDays},
		{"credit_score", creditScore},
		{"income", income},
		{"debt_to_income", debtToIncome},
		{"employment_years", employmentYears},
		{"is_collateralized", isCollateralized},
		{"previous_loans", previousLoans},
		{"previous_defaults", previousDefaults},
		{"collateral_value", collateralValue},
	}
	for _, c := range cols {
		if err := table.AddNumeric(c.name, c.values); err != nil {
			return nil, nil, err
		}
	}

	var alt map[string][]float64
	if includeAlternative {
		alt = generateAlternative(rng, n)
		for _, name := range alternativeColumnOrder {
			if err := table.AddNumeric(name, alt[name]); err != nil {
				return nil, nil, err
			}
		}
	}

	y := make([]int, n)
	for i := 0; i < n; i++ {
		p := 0.05
		if loanAmount[i] > 30000 {
			p += 0.1
		}
		if interestRate[i] > 15 {
			p += 0.1
		}
		if creditScore[i] < 600 {
			p += 0.2
		}
		if debtToIncome[i] > 0.4 {
			p += 0.15
		}
		if employmentYears[i] < 1 {
			p += 0.1
		}
		if isCollateralized[i] == 0 {
			p += 0.1
		}
		if previousDefaults[i] > 0 {
			p += 0.2
		}
		if includeAlternative {
			if alt["transaction_income_stability"][i] < 0.5 {
				p += 0.1
			}
			if alt["transaction_late_payment_frequency"][i] > 0.1 {
				p += 0.1
			}
			if alt["utility_payment_overall_utility_payment_consistency"][i] < 0.8 {
				p += 0.1
			}
			if alt["education_employment_job_stability_score"][i] < 0.5 {
				p += 0.05
			}
		}
		if p > 0.95 {
			p = 0.95
		}
		if rng.Float64() < p {
			y[i] = 1
		}
	}
	return table, y, nil
}

// alternativeColumnOrder fixes the column order of the generated
// alternative-data block.
var alternativeColumnOrder = []string{
	"digital_footprint_email_domain_age_days",
	"digital_footprint_device_age_months",
	"digital_footprint_social_media_accounts",
	"digital_footprint_has_professional_email",
	"digital_footprint_device_price_category_score",
	"transaction_income_stability",
	"transaction_expense_to_income_ratio",
	"transaction_savings_rate",
	"transaction_late_payment_frequency",
	"transaction_cash_buffer_months",
	"utility_payment_overall_utility_payment_consistency",
	"utility_payment_utility_missed_payments_count",
	"utility_payment_utility_payment_trend_score",
	"education_employment_education_level_score",
	"education_employment_job_stability_score",
	"education_employment_industry_stability",
}

func generateAlternative(rng *rand.Rand, n int) map[string][]float64 {
	priceScores := []float64{0.3, 0.6, 0.9}
	trendScores := []float64{0.3, 0.7, 0.9}
	eduScores := []float64{0.2, 0.4, 0.6, 0.8, 1.0}

	out := make(map[string][]float64, len(alternativeColumnOrder))
	for _, name := range alternativeColumnOrder {
		out[name] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		out["digital_footprint_email_domain_age_days"][i] = float64(30 + rng.Intn(4970))
		out["digital_footprint_device_age_months"][i] = float64(1 + rng.Intn(59))
		out["digital_footprint_social_media_accounts"][i] = float64(rng.Intn(6))
		out["digital_footprint_has_professional_email"][i] = bernoulli(rng, 0.7)
		out["digital_footprint_device_price_category_score"][i] = priceScores[rng.Intn(len(priceScores))]

		out["transaction_income_stability"][i] = 0.3 + rng.Float64()*0.7
		out["transaction_expense_to_income_ratio"][i] = 0.3 + rng.Float64()*0.6
		out["transaction_savings_rate"][i] = rng.Float64() * 0.3
		out["transaction_late_payment_frequency"][i] = rng.Float64() * 0.2
		out["transaction_cash_buffer_months"][i] = rng.Float64() * 6

		out["utility_payment_overall_utility_payment_consistency"][i] = 0.7 + rng.Float64()*0.3
		out["utility_payment_utility_missed_payments_count"][i] = float64(rng.Intn(5))
		out["utility_payment_utility_payment_trend_score"][i] = trendScores[rng.Intn(len(trendScores))]

		out["education_employment_education_level_score"][i] = eduScores[rng.Intn(len(eduScores))]
		out["education_employment_job_stability_score"][i] = 0.3 + rng.Float64()*0.7
		out["education_employment_industry_stability"][i] = 0.3 + rng.Float64()*0.7
	}
	return out
}

// servingRenames maps generator column names onto the vocabulary used
// when scoring live applications, so models train and serve over the
// same feature names.
var servingRenames = map[string]string{
	"credit_score":      "borrower_credit_score",
	"income":            "borrower_income",
	"debt_to_income":    "borrower_debt_to_income",
	"employment_years":  "borrower_employment_years",
	"previous_loans":    "borrower_previous_loans",
	"previous_defaults": "borrower_previous_defaults",
}

// ServingView returns a copy of the table with traditional columns
// renamed to the application-time vocabulary. Alternative columns pass
// through unchanged.
func ServingView(table *dataset.Table) (*dataset.Table, error) {
	out := dataset.New()
	for _, name := range table.Names() {
		col, _ := table.Column(name)
		target := name
		if renamed, ok := servingRenames[name]; ok {
			target = renamed
		}
		var err error
		if col.Kind == dataset.Numeric {
			err = out.AddNumeric(target, append([]float64(nil), col.Floats...))
		} else {
			err = out.AddCategorical(target, append([]string(nil), col.Labels...))
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func bernoulli(rng *rand.Rand, p float64) float64 {
	if rng.Float64() < p {
		return 1
	}
	return 0
}

// poisson draws via Knuth's product-of-uniforms method; fine for the
// small rates used here.
func poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k, product := 0, rng.Float64()
	for product > limit {
		k++
		product *= rng.Float64()
	}
	return k
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
