package altdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"

	"github.com/jonathan/credit-scorer/internal/credentials"
)

// Source fetches one category row for a borrower. Real deployments would
// call provider APIs; the built-in sources simulate responses
// deterministically so the same borrower always yields the same row.
type Source interface {
	Category() string
	Fetch(ctx context.Context, borrowerID string) (Row, error)
}

// simulatedSource derives a per-borrower rng from a hash of the category
// and borrower id, then generates a prefixed row.
type simulatedSource struct {
	category string
	apiKey   string
	generate func(rng *rand.Rand) Row
}

func (s *simulatedSource) Category() string { return s.category }

func (s *simulatedSource) Fetch(ctx context.Context, borrowerID string) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if borrowerID == "" {
		return nil, fmt.Errorf("%s source: borrower id required", s.category)
	}
	rng := rand.New(rand.NewSource(seedFor(s.category, borrowerID)))
	row := s.generate(rng)
	out := make(Row, len(row))
	for name, v := range row {
		out[s.category+"_"+name] = v
	}
	return out, nil
}

func seedFor(category, borrowerID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write([]byte(borrowerID))
	return int64(h.Sum64())
}

func newSource(category string, generate func(rng *rand.Rand) Row) Source {
	key := credentials.Resolve(category)
	if key == "" {
		log.Printf("no API key configured for %s provider, running simulated", category)
	}
	return &simulatedSource{category: category, apiKey: key, generate: generate}
}

// NewDigitalFootprintSource simulates a digital identity provider.
func NewDigitalFootprintSource() Source {
	return newSource(CategoryDigitalFootprint, func(rng *rand.Rand) Row {
		priceCategories := []float64{0.3, 0.6, 0.9}
		onlineHours := []float64{0.7, 0.8, 0.6, 0.4}
		return Row{
			"email_domain_age_days":         float64(30 + rng.Intn(4970)),
			"email_account_age_days":        float64(30 + rng.Intn(2970)),
			"device_age_months":             float64(1 + rng.Intn(59)),
			"social_media_accounts":         float64(rng.Intn(6)),
			"social_media_followers":        float64(rng.Intn(5000)),
			"digital_subscription_count":    float64(rng.Intn(10)),
			"has_professional_email":        float64(bernoulli(rng, 0.7)),
			"device_price_category_score":   priceCategories[rng.Intn(len(priceCategories))],
			"typical_online_hours_score":    onlineHours[rng.Intn(len(onlineHours))],
			"typical_geolocation_stability": rng.Float64(),
		}
	})
}

// NewTransactionSource simulates a banking cash-flow aggregator.
func NewTransactionSource() Source {
	return newSource(CategoryTransaction, func(rng *rand.Rand) Row {
		volatility := rng.Float64() * 0.3
		return Row{
			"income_stability":                   1 - volatility,
			"expense_to_income_ratio":            0.7 + rng.Float64()*0.4,
			"debt_service_ratio":                 0.05 + rng.Float64()*0.15,
			"savings_rate":                       rng.Float64() * 0.2,
			"late_payment_frequency":             rng.Float64() * 0.2,
			"overdraft_frequency":                rng.Float64() * 0.1,
			"cash_buffer_months":                 rng.Float64() * 6,
			"recurring_bill_payment_consistency": 0.7 + rng.Float64()*0.3,
		}
	})
}

// NewUtilityPaymentSource simulates a utility payment bureau.
func NewUtilityPaymentSource() Source {
	return newSource(CategoryUtilityPayment, func(rng *rand.Rand) Row {
		historyLength := float64(6 + rng.Intn(18))
		trendScores := []float64{0.9, 0.7, 0.3}
		return Row{
			"overall_utility_payment_consistency": 0.7 + rng.Float64()*0.3,
			"utility_missed_payments_count":       float64(int(rng.Float64() * 0.1 * historyLength)),
			"avg_days_late_when_late":             1 + rng.Float64()*14,
			"utility_payment_trend_score":         trendScores[rng.Intn(len(trendScores))],
			"utility_history_length_months":       historyLength,
			"utility_accounts_count":              float64(2 + rng.Intn(4)),
		}
	})
}

// NewEducationEmploymentSource simulates an education and employment
// verification provider.
func NewEducationEmploymentSource() Source {
	return newSource(CategoryEducationEmployment, func(rng *rand.Rand) Row {
		levelScores := []float64{0.2, 0.4, 0.6, 0.8, 1.0}
		sizeScores := []float64{0.25, 0.5, 0.75, 1.0}
		jobChanges := float64(rng.Intn(4))
		return Row{
			"education_level_score":     levelScores[rng.Intn(len(levelScores))],
			"employment_years":          rng.ExpFloat64() * 5,
			"job_stability_score":       1 - jobChanges/5,
			"industry_stability":        0.3 + rng.Float64()*0.7,
			"job_level_score":           levelScores[rng.Intn(len(levelScores))],
			"company_size_score":        sizeScores[rng.Intn(len(sizeScores))],
			"career_growth_trajectory":  rng.Float64(),
			"skill_demand_score":        rng.Float64(),
		}
	})
}

func bernoulli(rng *rand.Rand, p float64) int {
	if rng.Float64() < p {
		return 1
	}
	return 0
}

// DefaultSources returns the four simulated providers.
func DefaultSources() []Source {
	return []Source{
		NewDigitalFootprintSource(),
		NewTransactionSource(),
		NewUtilityPaymentSource(),
		NewEducationEmploymentSource(),
	}
}
