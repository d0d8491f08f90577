// Package explain produces per-feature attribution values for individual
// predictions. Tree families get an exact decision-path attributor; other
// families get a model-agnostic coalition-sampling attributor seeded with a
// background sample. Only the positive-class contribution is reported.
package explain

import (
	"errors"
	"fmt"

	"github.com/jonathan/credit-scorer/internal/model"
)

// ErrNoBackground is returned when an explainer is constructed without
// background rows.
var ErrNoBackground = errors.New("explainer requires a background sample")

// Explanation carries per-row attribution vectors and the explainer's
// baseline expectation.
type Explanation struct {
	Baseline     float64     `json:"baseline"`
	Values       [][]float64 `json:"values"`
	FeatureNames []string    `json:"feature_names,omitempty"`
}

// Contribution is one named attribution value for report output.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Explainer computes attributions for rows of an already-preprocessed
// feature matrix.
type Explainer interface {
	Explain(X [][]float64) (*Explanation, error)
}

// New selects the attribution method for the fitted classifier: the
// decision-path attributor for single tree ensembles, coalition sampling
// for everything else (committees mix margin spaces, so they are treated
// as opaque).
func New(clf model.Classifier, background [][]float64, seed int64) (Explainer, error) {
	if len(background) == 0 {
		return nil, ErrNoBackground
	}
	switch m := clf.(type) {
	case *model.RandomForest:
		if !m.Fitted {
			return nil, model.ErrNotFitted
		}
		return newTreeExplainer(forestSource{m}, background)
	case *model.GradientBoosting:
		if !m.Fitted {
			return nil, model.ErrNotFitted
		}
		return newTreeExplainer(boostingSource{m}, background)
	default:
		return NewSampling(clf, background, seed)
	}
}

// TopContributions sorts one row's attributions by absolute value and
// returns the strongest few as named pairs.
func (e *Explanation) TopContributions(row, limit int) ([]Contribution, error) {
	if e == nil || row < 0 || row >= len(e.Values) {
		return nil, fmt.Errorf("no attribution values for row %d", row)
	}
	values := e.Values[row]
	out := make([]Contribution, len(values))
	for j, v := range values {
		name := fmt.Sprintf("feature_%d", j)
		if j < len(e.FeatureNames) {
			name = e.FeatureNames[j]
		}
		out[j] = Contribution{Feature: name, Value: v}
	}
	sortByMagnitude(out)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func sortByMagnitude(contributions []Contribution) {
	abs := func(v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	}
	for i := 1; i < len(contributions); i++ {
		for j := i; j > 0 && abs(contributions[j].Value) > abs(contributions[j-1].Value); j-- {
			contributions[j], contributions[j-1] = contributions[j-1], contributions[j]
		}
	}
}
