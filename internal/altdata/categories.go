package altdata

import (
	"github.com/jonathan/credit-scorer/internal/model"
)

// NewDigitalFootprintScorer scores online identity and device signals.
// Weights favor account longevity, professional email use, and location
// stability.
func NewDigitalFootprintScorer() Scorer {
	return &weightedScorer{
		name: CategoryDigitalFootprint,
		features: []feature{
			{"email_domain_age_days", 0.10, capNorm(3650)},
			{"email_account_age_days", 0.15, capNorm(1825)},
			{"device_age_months", 0.05, inverted(capNorm(60))},
			{"social_media_accounts", 0.10, capNorm(5)},
			{"social_media_followers", 0.05, logNorm(5000)},
			{"digital_subscription_count", 0.10, capNorm(10)},
			{"has_professional_email", 0.15, clip01},
			{"device_price_category_score", 0.10, clip01},
			{"typical_online_hours_score", 0.05, clip01},
			{"typical_geolocation_stability", 0.15, clip01},
		},
	}
}

// NewTransactionScorer scores banking cash-flow behavior. It is trainable:
// given labeled rows it swaps the fixed weights for a forest regressor over
// the same normalized features.
func NewTransactionScorer() Trainable {
	return &trainableScorer{
		weightedScorer: weightedScorer{
			name: CategoryTransaction,
			features: []feature{
				{"income_stability", 0.20, clip01},
				{"expense_to_income_ratio", 0.15, inverted(clip01)},
				{"debt_service_ratio", 0.15, inverted(clip01)},
				{"savings_rate", 0.10, clip01},
				{"late_payment_frequency", 0.10, inverted(clip01)},
				{"overdraft_frequency", 0.10, inverted(clip01)},
				{"cash_buffer_months", 0.10, capNorm(6)},
				{"recurring_bill_payment_consistency", 0.10, clip01},
			},
		},
		regressor: model.NewForestRegressor(100, 5, 42),
	}
}

// NewUtilityPaymentScorer scores utility and telecom payment history.
// Missed-payment counts are read as a rate over a two-year window.
func NewUtilityPaymentScorer() Scorer {
	return &weightedScorer{
		name: CategoryUtilityPayment,
		features: []feature{
			{"overall_utility_payment_consistency", 0.30, clip01},
			{"utility_missed_payments_count", 0.20, inverted(capNorm(24))},
			{"avg_days_late_when_late", 0.15, inverted(capNorm(30))},
			{"utility_payment_trend_score", 0.15, clip01},
			{"utility_history_length_months", 0.10, capNorm(36)},
			{"utility_accounts_count", 0.10, capNorm(5)},
		},
	}
}

// NewEducationEmploymentScorer scores career and education stability. It is
// trainable with a ridge regression whose output is clamped to [0,1].
func NewEducationEmploymentScorer() Trainable {
	return &trainableScorer{
		weightedScorer: weightedScorer{
			name: CategoryEducationEmployment,
			features: []feature{
				{"education_level_score", 0.15, clip01},
				{"employment_years", 0.20, capNorm(20)},
				{"job_stability_score", 0.20, clip01},
				{"industry_stability", 0.10, clip01},
				{"job_level_score", 0.15, clip01},
				{"company_size_score", 0.05, clip01},
				{"career_growth_trajectory", 0.10, clip01},
				{"skill_demand_score", 0.05, clip01},
			},
		},
		regressor: model.NewRidge(1.0),
	}
}

// DefaultScorers returns the four category scorers keyed by name.
func DefaultScorers() map[string]Scorer {
	scorers := []Scorer{
		NewDigitalFootprintScorer(),
		NewTransactionScorer(),
		NewUtilityPaymentScorer(),
		NewEducationEmploymentScorer(),
	}
	out := make(map[string]Scorer, len(scorers))
	for _, s := range scorers {
		out[s.Name()] = s
	}
	return out
}
