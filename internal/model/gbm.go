package model

import (
	"math"
	"math/rand"
)

// GradientBoosting fits staged regression trees on the logistic-loss
// gradient. The Lambda, Subsample/ColSubsample, and Histogram knobs select
// the xgb and lgb variants of the family; leaf values are Newton steps
// -Σg/(Σh+λ) in all variants.
type GradientBoosting struct {
	Stages          int
	LearningRate    float64
	MaxDepth        int
	Lambda          float64 // L2 leaf regularization (xgb variant)
	Subsample       float64 // row fraction per stage; <=0 or >=1 disables
	ColSubsample    float64 // feature fraction per stage; <=0 or >=1 disables
	Histogram       bool    // split on pre-binned thresholds (lgb variant)
	Bins            int
	MinChildSamples int
	Seed            int64

	Trees      []*Node
	Base       float64 // initial log-odds
	Importance []float64
	Fitted     bool
}

// NewGradientBoosting returns an unfit booster with the plain-gb defaults.
func NewGradientBoosting(seed int64) *GradientBoosting {
	return &GradientBoosting{
		Stages:          100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinChildSamples: 1,
		Seed:            seed,
	}
}

// NewXGB returns the extreme-gradient variant: L2 leaf regularization plus
// row and column subsampling.
func NewXGB(seed int64) *GradientBoosting {
	b := NewGradientBoosting(seed)
	b.Lambda = 1
	b.Subsample = 0.8
	b.ColSubsample = 0.8
	return b
}

// NewLGB returns the histogram variant: splits are searched over 256-bin
// feature quantiles.
func NewLGB(seed int64) *GradientBoosting {
	b := NewXGB(seed)
	b.Histogram = true
	b.Bins = 256
	b.MinChildSamples = 20
	return b
}

// Clone returns a fresh unfit copy with the same hyperparameters.
func (b *GradientBoosting) Clone() Classifier {
	clone := *b
	clone.Trees = nil
	clone.Importance = nil
	clone.Base = 0
	clone.Fitted = false
	return &clone
}

// Fit runs the staged boosting loop. Stages are inherently sequential; the
// per-stage subsampling draws from a single seeded generator so refits are
// reproducible.
func (b *GradientBoosting) Fit(X [][]float64, y []int) error {
	if err := validateBinary(X, y); err != nil {
		return err
	}

	numFeatures := len(X[0])
	rng := rand.New(rand.NewSource(b.Seed))

	var thresholds [][]float64
	if b.Histogram {
		bins := b.Bins
		if bins <= 0 {
			bins = 256
		}
		thresholds = histogramThresholds(X, bins)
	}

	positives := 0
	for _, label := range y {
		positives += label
	}
	b.Base = logOdds(float64(positives) / float64(len(y)))

	margin := make([]float64, len(X))
	for i := range margin {
		margin[i] = b.Base
	}

	maxFeatures := 0
	if b.ColSubsample > 0 && b.ColSubsample < 1 {
		maxFeatures = int(math.Max(1, math.Floor(b.ColSubsample*float64(numFeatures))))
	}

	grad := make([]float64, len(X))
	hess := make([]float64, len(X))
	importance := make([]float64, numFeatures)
	b.Trees = make([]*Node, 0, b.Stages)

	minLeaf := b.MinChildSamples
	if minLeaf < 1 {
		minLeaf = 1
	}

	for stage := 0; stage < b.Stages; stage++ {
		for i := range X {
			p := sigmoid(margin[i])
			grad[i] = p - float64(y[i])
			hess[i] = p * (1 - p)
		}

		idx := b.sampleRows(len(X), rng)
		builder := &treeBuilder{
			X:    X,
			grad: grad,
			hess: hess,
			params: treeParams{
				maxDepth:    b.MaxDepth,
				minSplit:    2 * minLeaf,
				minLeaf:     minLeaf,
				maxFeatures: maxFeatures,
				lambda:      b.Lambda,
				thresholds:  thresholds,
			},
			rng:        rng,
			importance: importance,
		}
		tree := builder.build(idx, 0)
		b.Trees = append(b.Trees, tree)

		for i, row := range X {
			margin[i] += b.LearningRate * tree.Predict(row)
		}
	}

	sum := 0.0
	for _, v := range importance {
		sum += v
	}
	if sum > 0 {
		for f := range importance {
			importance[f] /= sum
		}
	}
	b.Importance = importance
	b.Fitted = true
	return nil
}

func (b *GradientBoosting) sampleRows(n int, rng *rand.Rand) []int {
	if b.Subsample <= 0 || b.Subsample >= 1 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	k := int(math.Max(1, math.Floor(b.Subsample*float64(n))))
	perm := rng.Perm(n)[:k]
	return perm
}

// PredictProba applies the staged trees and squashes the margin.
func (b *GradientBoosting) PredictProba(X [][]float64) ([]float64, error) {
	if !b.Fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		margin := b.Base
		for _, tree := range b.Trees {
			margin += b.LearningRate * tree.Predict(row)
		}
		out[i] = sigmoid(margin)
	}
	return out, nil
}

// FeatureImportances returns the normalized split-gain importances.
func (b *GradientBoosting) FeatureImportances() []float64 {
	return b.Importance
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logOdds(p float64) float64 {
	const eps = 1e-6
	p = math.Min(1-eps, math.Max(eps, p))
	return math.Log(p / (1 - p))
}
