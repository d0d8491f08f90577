package model

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RandomForest is a bagged ensemble of decision trees with per-tree
// bootstrap samples and random feature subsets. Balanced mode reweights
// samples inversely to class frequency.
type RandomForest struct {
	NumTrees    int
	MaxDepth    int // 0 means unlimited
	MinSplit    int
	MinLeaf     int
	Balanced    bool
	MaxFeatures int // 0 means sqrt(numFeatures)
	Seed        int64

	Trees      []*Node
	Importance []float64
	Fitted     bool
}

// NewRandomForest returns an unfit forest with the family defaults.
func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{
		NumTrees: 100,
		MinSplit: 2,
		MinLeaf:  1,
		Balanced: true,
		Seed:     seed,
	}
}

// Clone returns a fresh unfit copy with the same hyperparameters.
func (f *RandomForest) Clone() Classifier {
	clone := *f
	clone.Trees = nil
	clone.Importance = nil
	clone.Fitted = false
	return &clone
}

// Fit grows the forest. Trees are built in parallel; each tree derives its
// own generator from the forest seed and writes to a pre-assigned slot, so
// the result is independent of scheduling.
func (f *RandomForest) Fit(X [][]float64, y []int) error {
	if err := validateBinary(X, y); err != nil {
		return err
	}

	weights := make([]float64, len(y))
	for i := range weights {
		weights[i] = 1
	}
	if f.Balanced {
		counts := [2]int{}
		for _, label := range y {
			counts[label]++
		}
		for i, label := range y {
			weights[i] = float64(len(y)) / (2 * float64(counts[label]))
		}
	}

	numFeatures := len(X[0])
	maxFeatures := f.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(numFeatures)))))
	}

	f.Trees = make([]*Node, f.NumTrees)
	importances := make([][]float64, f.NumTrees)

	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for t := 0; t < f.NumTrees; t++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.Seed + int64(t)))

			idx := make([]int, len(X))
			for i := range idx {
				idx[i] = rng.Intn(len(X))
			}

			grad := make([]float64, len(X))
			hess := make([]float64, len(X))
			for i := range X {
				grad[i] = -weights[i] * float64(y[i])
				hess[i] = weights[i]
			}

			imp := make([]float64, numFeatures)
			builder := &treeBuilder{
				X:    X,
				grad: grad,
				hess: hess,
				params: treeParams{
					maxDepth:    f.MaxDepth,
					minSplit:    f.MinSplit,
					minLeaf:     f.MinLeaf,
					maxFeatures: maxFeatures,
				},
				rng:        rng,
				importance: imp,
			}
			f.Trees[t] = builder.build(idx, 0)
			importances[t] = imp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("forest fit failed: %w", err)
	}

	f.Importance = normalizeImportance(importances, numFeatures)
	f.Fitted = true
	return nil
}

// PredictProba averages the per-tree leaf probabilities.
func (f *RandomForest) PredictProba(X [][]float64) ([]float64, error) {
	if !f.Fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		sum := 0.0
		for _, tree := range f.Trees {
			sum += tree.Predict(row)
		}
		p := sum / float64(len(f.Trees))
		out[i] = clamp01(p)
	}
	return out, nil
}

// FeatureImportances returns the normalized split-gain importances.
func (f *RandomForest) FeatureImportances() []float64 {
	return f.Importance
}

func normalizeImportance(perTree [][]float64, numFeatures int) []float64 {
	total := make([]float64, numFeatures)
	sum := 0.0
	for _, imp := range perTree {
		for f, v := range imp {
			total[f] += v
			sum += v
		}
	}
	if sum > 0 {
		for f := range total {
			total[f] /= sum
		}
	}
	return total
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// ForestRegressor is a bagged regression forest used by the trainable
// alternative-data scorers.
type ForestRegressor struct {
	NumTrees int
	MaxDepth int
	MinSplit int
	MinLeaf  int
	Seed     int64

	Trees  []*Node
	Fitted bool
}

// NewForestRegressor returns an unfit regression forest.
func NewForestRegressor(numTrees, maxDepth int, seed int64) *ForestRegressor {
	return &ForestRegressor{NumTrees: numTrees, MaxDepth: maxDepth, MinSplit: 2, MinLeaf: 1, Seed: seed}
}

// FitRegression grows the forest on a real-valued target.
func (f *ForestRegressor) FitRegression(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature matrix has %d rows, target has %d", len(X), len(y))
	}

	numFeatures := len(X[0])
	maxFeatures := int(math.Max(1, math.Floor(math.Sqrt(float64(numFeatures)))))

	f.Trees = make([]*Node, f.NumTrees)
	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for t := 0; t < f.NumTrees; t++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.Seed + int64(t)))
			idx := make([]int, len(X))
			for i := range idx {
				idx[i] = rng.Intn(len(X))
			}
			grad := make([]float64, len(X))
			hess := make([]float64, len(X))
			for i := range X {
				grad[i] = -y[i]
				hess[i] = 1
			}
			builder := &treeBuilder{
				X:    X,
				grad: grad,
				hess: hess,
				params: treeParams{
					maxDepth:    f.MaxDepth,
					minSplit:    f.MinSplit,
					minLeaf:     f.MinLeaf,
					maxFeatures: maxFeatures,
				},
				rng: rng,
			}
			f.Trees[t] = builder.build(idx, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("regression forest fit failed: %w", err)
	}
	f.Fitted = true
	return nil
}

// PredictRegression averages the per-tree predictions.
func (f *ForestRegressor) PredictRegression(X [][]float64) ([]float64, error) {
	if !f.Fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		sum := 0.0
		for _, tree := range f.Trees {
			sum += tree.Predict(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}
