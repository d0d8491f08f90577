// Package integration combines traditional credit data with alternative
// data signals: the model integrator trains and scores over the joined
// feature space, and the lending system drives a full application
// through data collection, scoring, compliance, and documents.
package integration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonathan/credit-scorer/internal/altdata"
	"github.com/jonathan/credit-scorer/internal/dataset"
	"github.com/jonathan/credit-scorer/internal/scoring"
	"github.com/jonathan/credit-scorer/internal/types"
)

// DefaultAltDataWeight is the configured share of alternative data in the
// enhanced assessment.
const DefaultAltDataWeight = 0.3

// topFactorLimit caps the factors attached to an assessment.
const topFactorLimit = 5

// Integrator scores applicants over the concatenation of traditional and
// alternative feature tables.
type Integrator struct {
	Model         *scoring.Model
	AltDataWeight float64
}

// NewIntegrator wraps a scoring model. An out-of-range weight falls back
// to the default.
func NewIntegrator(m *scoring.Model, altDataWeight float64) *Integrator {
	if altDataWeight < 0 || altDataWeight > 1 {
		altDataWeight = DefaultAltDataWeight
	}
	return &Integrator{Model: m, AltDataWeight: altDataWeight}
}

// TraditionalWeight is the complementary share of traditional data.
func (it *Integrator) TraditionalWeight() float64 {
	return 1 - it.AltDataWeight
}

// Train fits the underlying model on the column-joined tables. alt may be
// nil for traditional-only training.
func (it *Integrator) Train(ctx context.Context, trad, alt *dataset.Table, y []int, opts scoring.TrainOptions) (*scoring.TrainReport, error) {
	combined, err := dataset.Concat(trad, alt)
	if err != nil {
		return nil, fmt.Errorf("joining traditional and alternative data: %w", err)
	}
	return it.Model.Train(ctx, combined, y, opts)
}

// Predict scores the first applicant row of the joined tables and packages
// the result as an assessment: default probability, bounded credit score,
// and the strongest attribution factors when an explainer is available.
func (it *Integrator) Predict(ctx context.Context, trad, alt *dataset.Table) (*types.Assessment, error) {
	combined, err := dataset.Concat(trad, alt)
	if err != nil {
		return nil, fmt.Errorf("joining traditional and alternative data: %w", err)
	}

	probs, explanation, err := it.Model.PredictWithExplanation(ctx, combined, scoring.PredictOptions{EngineerFeatures: true})
	if err != nil {
		return nil, err
	}
	if len(probs) == 0 {
		return nil, fmt.Errorf("no applicant rows to score")
	}

	assessment := &types.Assessment{
		Probability: probs[0],
		CreditScore: scoring.ProbabilityToScore(probs[0]),
		GeneratedAt: time.Now().UTC(),
	}
	if explanation != nil && len(explanation.Values) > 0 {
		assessment.Baseline = explanation.Baseline
		contributions, err := explanation.TopContributions(0, topFactorLimit)
		if err == nil {
			for _, c := range contributions {
				assessment.TopFactors = append(assessment.TopFactors, types.Factor{
					Feature: c.Feature,
					Value:   c.Value,
				})
			}
		}
	}
	return assessment, nil
}

// AltTable flattens collected category rows into a one-row table with
// deterministic column order.
func AltTable(data map[string]altdata.Row) (*dataset.Table, error) {
	merged := make(map[string]float64)
	for _, row := range data {
		for name, v := range row {
			merged[name] = v
		}
	}
	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	table := dataset.New()
	for _, name := range names {
		if err := table.AddNumeric(name, []float64{merged[name]}); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// TraditionalTable builds the one-row traditional feature table from an
// application, using the risk model's column vocabulary.
func TraditionalTable(app *types.LoanApplication) (*dataset.Table, error) {
	collateralized := 0.0
	if app.IsCollateralized {
		collateralized = 1
	}
	cols := []struct {
		name  string
		value float64
	}{
		{"loan_amount", app.LoanAmount},
		{"interest_rate", app.InterestRate},
		{"term_days", float64(app.TermDays)},
		{"borrower_credit_score", app.CreditScore},
		{"borrower_income", app.Income},
		{"borrower_debt_to_income", app.DebtToIncome},
		{"borrower_employment_years", app.EmploymentYears},
		{"is_collateralized", collateralized},
		{"collateral_value", app.CollateralValue},
		{"borrower_previous_loans", float64(app.PreviousLoans)},
		{"borrower_previous_defaults", float64(app.PreviousDefaults)},
	}

	table := dataset.New()
	for _, c := range cols {
		if err := table.AddNumeric(c.name, []float64{c.value}); err != nil {
			return nil, err
		}
	}
	return table, nil
}
