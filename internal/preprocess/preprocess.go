// Package preprocess builds and applies the fitted column transformation
// plan: numeric columns are median-imputed then passed through a
// variance-stabilizing power transform (plain z-score when the transform
// cannot be fit) and standardized; categorical columns are most-frequent
// imputed then one-hot encoded with unseen categories decoding to an
// all-zero indicator block.
package preprocess

import (
	"fmt"
	"math"
	"sort"

	"github.com/jonathan/credit-scorer/internal/dataset"
	"github.com/jonathan/credit-scorer/internal/stats"
	"github.com/jonathan/credit-scorer/internal/taxonomy"
)

// NumericState holds the fitted parameters for one numeric column. Fields
// are exported so a fitted plan can be serialized inside a model bundle.
type NumericState struct {
	Median   float64
	UsePower bool
	Lambda   float64
	Mean     float64
	Std      float64
}

// CategoricalState holds the fitted parameters for one categorical column.
type CategoricalState struct {
	Mode       string
	Categories []string
}

// Plan is the column transformation plan. Build returns it unfit; Fit
// learns per-column state from training data; Transform reapplies that
// state without refitting.
type Plan struct {
	NumericCols     []string
	CategoricalCols []string
	Numeric         map[string]*NumericState
	Categorical     map[string]*CategoricalState
	Fitted          bool
}

// Build returns an unfit plan covering the taxonomy's numeric and
// categorical columns.
func Build(tax taxonomy.Taxonomy) *Plan {
	return &Plan{
		NumericCols:     tax.Numeric(),
		CategoricalCols: tax.Categorical(),
		Numeric:         make(map[string]*NumericState),
		Categorical:     make(map[string]*CategoricalState),
	}
}

// Fit learns imputation and transform parameters from the training table.
// Columns absent from the table are treated as all-missing.
func (p *Plan) Fit(t *dataset.Table) error {
	if t.NumRows() == 0 && (len(p.NumericCols) > 0 || len(p.CategoricalCols) > 0) {
		return fmt.Errorf("cannot fit preprocessing plan on an empty dataset")
	}

	for _, name := range p.NumericCols {
		values := numericValues(t, name)
		p.Numeric[name] = fitNumeric(values)
	}
	for _, name := range p.CategoricalCols {
		labels := categoricalValues(t, name)
		p.Categorical[name] = fitCategorical(labels)
	}

	p.Fitted = true
	return nil
}

// Transform applies the fitted plan and returns the row-major feature
// matrix together with the output feature names (numeric columns first,
// then one indicator per learned category named "col=value").
func (p *Plan) Transform(t *dataset.Table) ([][]float64, []string, error) {
	if !p.Fitted {
		return nil, nil, fmt.Errorf("preprocessing plan is not fitted")
	}

	names := p.FeatureNames()
	rows := make([][]float64, t.NumRows())
	for i := range rows {
		rows[i] = make([]float64, 0, len(names))
	}

	for _, name := range p.NumericCols {
		state := p.Numeric[name]
		col, ok := t.Column(name)
		for i := range rows {
			v := math.NaN()
			if ok && !col.IsMissing(i) {
				v = col.Floats[i]
			}
			if math.IsNaN(v) {
				v = state.Median
			}
			if state.UsePower {
				v = yeoJohnson(v, state.Lambda)
			}
			if state.Std > 0 {
				v = (v - state.Mean) / state.Std
			} else {
				v = v - state.Mean
			}
			rows[i] = append(rows[i], v)
		}
	}

	for _, name := range p.CategoricalCols {
		state := p.Categorical[name]
		col, ok := t.Column(name)
		for i := range rows {
			label := ""
			if ok && !col.IsMissing(i) {
				label = col.Labels[i]
			}
			if label == "" {
				label = state.Mode
			}
			for _, category := range state.Categories {
				if label == category {
					rows[i] = append(rows[i], 1)
				} else {
					rows[i] = append(rows[i], 0)
				}
			}
		}
	}

	return rows, names, nil
}

// FitTransform fits the plan and transforms the same table.
func (p *Plan) FitTransform(t *dataset.Table) ([][]float64, []string, error) {
	if err := p.Fit(t); err != nil {
		return nil, nil, err
	}
	return p.Transform(t)
}

// FeatureNames returns the output feature names in transform order.
func (p *Plan) FeatureNames() []string {
	names := make([]string, 0, len(p.NumericCols))
	names = append(names, p.NumericCols...)
	for _, name := range p.CategoricalCols {
		state, ok := p.Categorical[name]
		if !ok {
			continue
		}
		for _, category := range state.Categories {
			names = append(names, name+"="+category)
		}
	}
	return names
}

func numericValues(t *dataset.Table, name string) []float64 {
	col, ok := t.Column(name)
	if !ok || col.Kind != dataset.Numeric {
		return nil
	}
	return col.Floats
}

func categoricalValues(t *dataset.Table, name string) []string {
	col, ok := t.Column(name)
	if !ok || col.Kind != dataset.Categorical {
		return nil
	}
	return col.Labels
}

func fitNumeric(values []float64) *NumericState {
	present := stats.DropNaN(values)
	state := &NumericState{Median: stats.Median(present)}
	if math.IsNaN(state.Median) {
		state.Median = 0
	}

	// Impute before fitting the transform so fit and apply see the same
	// distribution.
	imputed := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			imputed[i] = state.Median
		} else {
			imputed[i] = v
		}
	}
	if len(imputed) == 0 {
		imputed = []float64{state.Median}
	}

	if lambda, ok := fitLambda(imputed); ok {
		state.UsePower = true
		state.Lambda = lambda
		transformed := make([]float64, len(imputed))
		for i, v := range imputed {
			transformed[i] = yeoJohnson(v, lambda)
		}
		state.Mean = stats.Mean(transformed)
		state.Std = stats.Std(transformed)
	} else {
		state.Mean = stats.Mean(imputed)
		state.Std = stats.Std(imputed)
	}
	if math.IsNaN(state.Std) || state.Std <= 0 {
		state.Std = 0
	}
	return state
}

func fitCategorical(labels []string) *CategoricalState {
	counts := make(map[string]int)
	for _, label := range labels {
		if label == "" {
			continue
		}
		counts[label]++
	}

	categories := make([]string, 0, len(counts))
	for label := range counts {
		categories = append(categories, label)
	}
	sort.Strings(categories)

	mode := ""
	best := -1
	for _, label := range categories {
		if counts[label] > best {
			mode = label
			best = counts[label]
		}
	}

	// A fully missing column still needs one indicator so the output width
	// is stable.
	if len(categories) == 0 {
		categories = []string{"unknown"}
		mode = "unknown"
	}

	return &CategoricalState{Mode: mode, Categories: categories}
}
