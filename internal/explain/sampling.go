package explain

import (
	"fmt"
	"math/rand"

	"github.com/jonathan/credit-scorer/internal/model"
)

// samplesPerFeature bounds the coalition draws so explanation cost grows
// linearly with feature count.
const samplesPerFeature = 64

// SamplingExplainer approximates Shapley-style attributions for an opaque
// classifier by sampling feature coalitions against the background sample
// mean and measuring each feature's marginal contribution. Attributions
// are normalized so they sum to prediction minus baseline.
type SamplingExplainer struct {
	clf        model.Classifier
	background []float64 // per-feature background means
	baseline   float64
	seed       int64
}

// NewSampling builds the sampling explainer. The baseline is the model's
// prediction on the background mean row.
func NewSampling(clf model.Classifier, background [][]float64, seed int64) (*SamplingExplainer, error) {
	if len(background) == 0 {
		return nil, ErrNoBackground
	}
	means := make([]float64, len(background[0]))
	for _, row := range background {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(len(background))
	}

	probs, err := clf.PredictProba([][]float64{means})
	if err != nil {
		return nil, fmt.Errorf("baseline prediction failed: %w", err)
	}
	return &SamplingExplainer{clf: clf, background: means, baseline: probs[0], seed: seed}, nil
}

// Explain estimates per-feature attributions for every row.
func (e *SamplingExplainer) Explain(X [][]float64) (*Explanation, error) {
	values := make([][]float64, len(X))
	for i, row := range X {
		attribution, err := e.explainRow(row, e.seed+int64(i))
		if err != nil {
			return nil, err
		}
		values[i] = attribution
	}
	return &Explanation{Baseline: e.baseline, Values: values}, nil
}

func (e *SamplingExplainer) explainRow(row []float64, seed int64) ([]float64, error) {
	numFeatures := len(row)
	rng := rand.New(rand.NewSource(seed))

	totals := make([]float64, numFeatures)
	counts := make([]int, numFeatures)

	draws := samplesPerFeature * numFeatures
	for d := 0; d < draws; d++ {
		target := d % numFeatures

		// Random coalition of the other features takes the row's values;
		// everything else stays at background.
		with := make([]float64, numFeatures)
		without := make([]float64, numFeatures)
		for j := range row {
			if j != target && rng.Intn(2) == 1 {
				with[j], without[j] = row[j], row[j]
			} else {
				with[j], without[j] = e.background[j], e.background[j]
			}
		}
		with[target] = row[target]
		without[target] = e.background[target]

		probs, err := e.clf.PredictProba([][]float64{with, without})
		if err != nil {
			return nil, fmt.Errorf("coalition prediction failed: %w", err)
		}
		totals[target] += probs[0] - probs[1]
		counts[target]++
	}

	attribution := make([]float64, numFeatures)
	sum := 0.0
	for j := range attribution {
		if counts[j] > 0 {
			attribution[j] = totals[j] / float64(counts[j])
		}
		sum += attribution[j]
	}

	// Rescale so the attributions account exactly for the gap between the
	// prediction and the baseline.
	probs, err := e.clf.PredictProba([][]float64{row})
	if err != nil {
		return nil, fmt.Errorf("row prediction failed: %w", err)
	}
	gap := probs[0] - e.baseline
	if sum != 0 {
		factor := gap / sum
		for j := range attribution {
			attribution[j] *= factor
		}
	}
	return attribution, nil
}
