// Package features derives interaction, ratio, power, log, and aggregate
// columns from a classified dataset. Application is idempotent: derived
// columns already present are never recomputed, and derived columns never
// feed back into the derivation of further columns.
package features

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/credit-scorer/internal/dataset"
	"github.com/jonathan/credit-scorer/internal/stats"
	"github.com/jonathan/credit-scorer/internal/taxonomy"
)

const (
	// Interaction and ratio features pair the first N traditional with the
	// first N alternative numeric columns to bound combinatorial growth.
	maxPairedFeatures = 5
	// At most this many squared "score" columns are added.
	maxSquaredFeatures = 5
	// Columns with absolute sample skewness above this get a log transform.
	skewThreshold = 1.0
	// Substring marking a column as a score-like feature.
	scoreMarker = "score"
)

// Derived column name building blocks.
const (
	interactionPrefix = "interaction_"
	ratioPrefix       = "ratio_"
	squaredSuffix     = "_squared"
	logSuffix         = "_log"
	aggregatePrefix   = "alt_data_score_"
)

// Apply returns a copy of the table augmented with engineered columns. The
// input table is never mutated.
func Apply(t *dataset.Table, tax taxonomy.Taxonomy) (*dataset.Table, error) {
	out := t.Clone()

	if err := addInteractions(out, tax); err != nil {
		return nil, err
	}
	if err := addSquares(out, tax); err != nil {
		return nil, err
	}
	if err := addAggregates(out, tax); err != nil {
		return nil, err
	}
	if err := addLogs(out, tax); err != nil {
		return nil, err
	}
	return out, nil
}

// original filters out derived columns so repeated application cannot
// compound, then caps the list.
func original(names []string, limit int) []string {
	out := make([]string, 0, limit)
	for _, name := range names {
		if isDerived(name) {
			continue
		}
		out = append(out, name)
		if len(out) == limit {
			break
		}
	}
	return out
}

func isDerived(name string) bool {
	return strings.HasPrefix(name, interactionPrefix) ||
		strings.HasPrefix(name, ratioPrefix) ||
		strings.HasPrefix(name, aggregatePrefix) ||
		strings.HasSuffix(name, squaredSuffix) ||
		strings.HasSuffix(name, logSuffix)
}

func addInteractions(out *dataset.Table, tax taxonomy.Taxonomy) error {
	tradSubset := original(tax.TraditionalNumeric, maxPairedFeatures)
	altSubset := original(tax.AlternativeNumeric, maxPairedFeatures)
	if len(tradSubset) == 0 || len(altSubset) == 0 {
		return nil
	}

	for _, trad := range tradSubset {
		tc, ok := out.Column(trad)
		if !ok {
			continue
		}
		for _, alt := range altSubset {
			ac, ok := out.Column(alt)
			if !ok {
				continue
			}

			product := interactionPrefix + trad + "_" + alt
			if !out.Has(product) {
				values := make([]float64, out.NumRows())
				for i := range values {
					values[i] = tc.Floats[i] * ac.Floats[i]
				}
				if err := out.AddNumeric(product, values); err != nil {
					return fmt.Errorf("failed to add %s: %w", product, err)
				}
			}

			ratio := ratioPrefix + trad + "_to_" + alt
			if !out.Has(ratio) && zeroFree(ac.Floats) {
				values := make([]float64, out.NumRows())
				for i := range values {
					values[i] = tc.Floats[i] / ac.Floats[i]
				}
				if err := out.AddNumeric(ratio, values); err != nil {
					return fmt.Errorf("failed to add %s: %w", ratio, err)
				}
			}
		}
	}
	return nil
}

// zeroFree reports whether no value in the column is exactly zero. NaN
// entries pass the check and propagate through the division.
func zeroFree(values []float64) bool {
	for _, v := range values {
		if v == 0 {
			return false
		}
	}
	return true
}

func addSquares(out *dataset.Table, tax taxonomy.Taxonomy) error {
	count := 0
	for _, name := range tax.Numeric() {
		if isDerived(name) || !strings.Contains(strings.ToLower(name), scoreMarker) {
			continue
		}
		if count == maxSquaredFeatures {
			break
		}
		count++

		derived := name + squaredSuffix
		if out.Has(derived) {
			continue
		}
		col, ok := out.Column(name)
		if !ok {
			continue
		}
		values := make([]float64, out.NumRows())
		for i, v := range col.Floats {
			values[i] = v * v
		}
		if err := out.AddNumeric(derived, values); err != nil {
			return fmt.Errorf("failed to add %s: %w", derived, err)
		}
	}
	return nil
}

func addAggregates(out *dataset.Table, tax taxonomy.Taxonomy) error {
	if len(tax.Alternative()) < 2 {
		return nil
	}

	var scoreCols []*dataset.Column
	for _, name := range tax.AlternativeNumeric {
		if isDerived(name) || !strings.Contains(strings.ToLower(name), scoreMarker) {
			continue
		}
		if col, ok := out.Column(name); ok {
			scoreCols = append(scoreCols, col)
		}
	}
	if len(scoreCols) == 0 {
		return nil
	}

	n := out.NumRows()
	mean := make([]float64, n)
	min := make([]float64, n)
	max := make([]float64, n)
	rng := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 0, len(scoreCols))
		for _, col := range scoreCols {
			if !math.IsNaN(col.Floats[i]) {
				row = append(row, col.Floats[i])
			}
		}
		if len(row) == 0 {
			mean[i], min[i], max[i], rng[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
			continue
		}
		mean[i] = stats.Mean(row)
		min[i] = stats.Min(row)
		max[i] = stats.Max(row)
		rng[i] = max[i] - min[i]
	}

	for _, agg := range []struct {
		name   string
		values []float64
	}{
		{aggregatePrefix + "mean", mean},
		{aggregatePrefix + "min", min},
		{aggregatePrefix + "max", max},
		{aggregatePrefix + "range", rng},
	} {
		if out.Has(agg.name) {
			continue
		}
		if err := out.AddNumeric(agg.name, agg.values); err != nil {
			return fmt.Errorf("failed to add %s: %w", agg.name, err)
		}
	}
	return nil
}

func addLogs(out *dataset.Table, tax taxonomy.Taxonomy) error {
	for _, name := range tax.Numeric() {
		if isDerived(name) {
			continue
		}
		derived := name + logSuffix
		if out.Has(derived) {
			continue
		}
		col, ok := out.Column(name)
		if !ok {
			continue
		}

		present := stats.DropNaN(col.Floats)
		if math.Abs(stats.Skewness(present)) <= skewThreshold {
			continue
		}

		var transform func(float64) float64
		switch {
		case allAbove(col.Floats, 0):
			transform = math.Log
		case allAtLeast(col.Floats, 0):
			transform = math.Log1p
		default:
			continue
		}

		values := make([]float64, out.NumRows())
		for i, v := range col.Floats {
			values[i] = transform(v)
		}
		if err := out.AddNumeric(derived, values); err != nil {
			return fmt.Errorf("failed to add %s: %w", derived, err)
		}
	}
	return nil
}

// allAbove and allAtLeast treat NaN as failing, matching the strictness of
// the eligibility rule: a column with missing values is skipped.
func allAbove(values []float64, bound float64) bool {
	for _, v := range values {
		if !(v > bound) {
			return false
		}
	}
	return true
}

func allAtLeast(values []float64, bound float64) bool {
	for _, v := range values {
		if !(v >= bound) {
			return false
		}
	}
	return true
}
