// Package altdata scores non-traditional borrower signals. Each category
// scorer turns one borrower's single-row record into a bounded [0,100]
// sub-score; the aggregator blends the sub-scores with configurable
// weights into one alternative-data signal.
package altdata

import (
	"fmt"
	"math"

	"github.com/jonathan/credit-scorer/internal/model"
)

// NeutralScore is the documented sub-score for a category with no data.
const NeutralScore = 50.0

// Alternative-data category names, used as column prefixes by the sources
// and as registry keys by the aggregator.
const (
	CategoryDigitalFootprint    = "digital_footprint"
	CategoryTransaction         = "transaction"
	CategoryUtilityPayment      = "utility_payment"
	CategoryEducationEmployment = "education_employment"
)

// Row is one borrower's numeric record for a single category. Source rows
// carry the category prefix on every key; Preprocess strips it.
type Row map[string]float64

// Scorer turns one category row into a bounded sub-score. Preprocess
// normalizes every feature to [0,1] with higher always better; Score
// returns a value in [0,100], or NeutralScore when the row carries none of
// the category's features.
type Scorer interface {
	Name() string
	Features() []string
	Preprocess(raw Row) Row
	Score(raw Row) float64
}

// Trainable is implemented by scorers that can replace their fixed weights
// with a learned regressor.
type Trainable interface {
	Scorer
	Train(rows []Row, target []float64) error
}

// feature is one weighted input of a rule-based scorer. normalize maps the
// raw value to [0,1] with higher better (inversions happen here).
type feature struct {
	name      string
	weight    float64
	normalize func(float64) float64
}

// weightedScorer is the shared fixed-weight linear scorer. Weights are
// renormalized by the sum of weights actually present in the row.
type weightedScorer struct {
	name     string
	features []feature
}

func (s *weightedScorer) Name() string { return s.name }

func (s *weightedScorer) Features() []string {
	out := make([]string, len(s.features))
	for i, f := range s.features {
		out[i] = f.name
	}
	return out
}

// Preprocess strips the category prefix and normalizes the known features
// present in the row. Unknown keys are dropped; missing features stay
// absent rather than being fabricated.
func (s *weightedScorer) Preprocess(raw Row) Row {
	out := make(Row, len(s.features))
	for _, f := range s.features {
		v, ok := lookup(raw, s.name, f.name)
		if !ok || math.IsNaN(v) {
			continue
		}
		out[f.name] = f.normalize(v)
	}
	return out
}

func (s *weightedScorer) Score(raw Row) float64 {
	processed := s.Preprocess(raw)
	if len(processed) == 0 {
		return NeutralScore
	}

	total, weightSum := 0.0, 0.0
	for _, f := range s.features {
		v, ok := processed[f.name]
		if !ok {
			continue
		}
		total += f.weight * v
		weightSum += f.weight
	}
	if weightSum == 0 {
		return NeutralScore
	}
	return clampScore(total / weightSum * 100)
}

// vector extracts the preprocessed features in declaration order, zero for
// absent ones, for the trainable scorers' regression matrices.
func (s *weightedScorer) vector(raw Row) []float64 {
	processed := s.Preprocess(raw)
	out := make([]float64, len(s.features))
	for i, f := range s.features {
		out[i] = processed[f.name]
	}
	return out
}

// lookup accepts both the prefixed source form ("transaction_savings_rate")
// and the bare feature name.
func lookup(raw Row, category, name string) (float64, bool) {
	if v, ok := raw[category+"_"+name]; ok {
		return v, true
	}
	v, ok := raw[name]
	return v, ok
}

func clampScore(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

// trainableScorer wires a regressor over the weighted scorer's normalized
// feature vector. Until Train succeeds the fixed weights apply.
type trainableScorer struct {
	weightedScorer
	regressor model.Regressor
	trained   bool
}

func (s *trainableScorer) Train(rows []Row, target []float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("%s scorer: no training rows", s.name)
	}
	if len(rows) != len(target) {
		return fmt.Errorf("%s scorer: %d rows but %d targets", s.name, len(rows), len(target))
	}
	X := make([][]float64, len(rows))
	for i, row := range rows {
		X[i] = s.vector(row)
	}
	if err := s.regressor.FitRegression(X, target); err != nil {
		return fmt.Errorf("%s scorer training failed: %w", s.name, err)
	}
	s.trained = true
	return nil
}

func (s *trainableScorer) Score(raw Row) float64 {
	processed := s.Preprocess(raw)
	if len(processed) == 0 {
		return NeutralScore
	}
	if !s.trained {
		return s.weightedScorer.Score(raw)
	}
	preds, err := s.regressor.PredictRegression([][]float64{s.vector(raw)})
	if err != nil {
		return s.weightedScorer.Score(raw)
	}
	// Learned output is a default-free propensity in [0,1].
	p := math.Min(1, math.Max(0, preds[0]))
	return clampScore(p * 100)
}

// Normalization helpers shared by the category tables.

func capNorm(cap float64) func(float64) float64 {
	return func(v float64) float64 {
		return math.Min(1, math.Max(0, v/cap))
	}
}

func inverted(inner func(float64) float64) func(float64) float64 {
	return func(v float64) float64 {
		return 1 - inner(v)
	}
}

func clip01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func logNorm(max float64) func(float64) float64 {
	denom := math.Log1p(max)
	return func(v float64) float64 {
		if v <= 0 {
			return 0
		}
		return math.Min(1, math.Log1p(v)/denom)
	}
}
