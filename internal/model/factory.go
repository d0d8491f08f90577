package model

import "fmt"

// Recognized model-family keys.
const (
	FamilyRandomForest = "rf"
	FamilyGradient     = "gb"
	FamilyXGB          = "xgb"
	FamilyLGB          = "lgb"
	FamilyNeuralNet    = "nn"
	FamilyStacking     = "stacking"
	FamilyVoting       = "voting"
	FamilyEnsemble     = "ensemble"
)

// Normalize maps a family key to its canonical form. Unknown keys fall back
// to the default ensemble; the factory never rejects a key.
func Normalize(family string) string {
	switch family {
	case FamilyRandomForest, FamilyGradient, FamilyXGB, FamilyLGB,
		FamilyNeuralNet, FamilyStacking, FamilyVoting, FamilyEnsemble:
		return family
	default:
		return FamilyEnsemble
	}
}

// New instantiates an unfit classifier for the family with its default
// hyperparameters. Unknown keys construct the default ensemble.
func New(family string, seed int64) Classifier {
	switch Normalize(family) {
	case FamilyRandomForest:
		return NewRandomForest(seed)
	case FamilyGradient:
		return NewGradientBoosting(seed)
	case FamilyXGB:
		return NewXGB(seed)
	case FamilyLGB:
		return NewLGB(seed)
	case FamilyNeuralNet:
		return NewMLP(seed)
	case FamilyVoting:
		return NewVoting(NewRandomForest(seed), NewGradientBoosting(seed+1), NewXGB(seed+2))
	case FamilyStacking:
		return NewStacking(seed, NewRandomForest(seed), NewGradientBoosting(seed+1), NewXGB(seed+2))
	default:
		return NewVoting(NewRandomForest(seed), NewGradientBoosting(seed+1), NewXGB(seed+2), NewLGB(seed+3))
	}
}

// Candidate is one hyperparameter configuration in a family's search grid.
type Candidate struct {
	Desc string
	Make func() Classifier
}

// Grid returns the family's hyperparameter grid in deterministic cross
// product order, or nil for families fit directly.
func Grid(family string, seed int64) []Candidate {
	switch Normalize(family) {
	case FamilyRandomForest:
		return forestGrid(seed)
	case FamilyGradient, FamilyXGB, FamilyLGB:
		return boostingGrid(seed, Normalize(family))
	case FamilyNeuralNet:
		return mlpGrid(seed)
	default:
		return nil
	}
}

func forestGrid(seed int64) []Candidate {
	var out []Candidate
	for _, trees := range []int{100, 200} {
		for _, depth := range []int{0, 10, 20} {
			for _, minSplit := range []int{2, 5, 10} {
				out = append(out, Candidate{
					Desc: fmt.Sprintf("n_estimators=%d max_depth=%d min_samples_split=%d", trees, depth, minSplit),
					Make: func() Classifier {
						f := NewRandomForest(seed)
						f.NumTrees = trees
						f.MaxDepth = depth
						f.MinSplit = minSplit
						return f
					},
				})
			}
		}
	}
	return out
}

func boostingGrid(seed int64, family string) []Candidate {
	subsamples := []float64{0}
	if family != FamilyGradient {
		subsamples = []float64{0.7, 0.8, 0.9}
	}
	variant := func() *GradientBoosting {
		switch family {
		case FamilyXGB:
			return NewXGB(seed)
		case FamilyLGB:
			return NewLGB(seed)
		default:
			return NewGradientBoosting(seed)
		}
	}

	var out []Candidate
	for _, stages := range []int{100, 200} {
		for _, lr := range []float64{0.01, 0.1} {
			for _, depth := range []int{3, 5, 7} {
				for _, subsample := range subsamples {
					desc := fmt.Sprintf("n_estimators=%d learning_rate=%g max_depth=%d", stages, lr, depth)
					if subsample > 0 {
						desc += fmt.Sprintf(" subsample=%g", subsample)
					}
					out = append(out, Candidate{
						Desc: desc,
						Make: func() Classifier {
							b := variant()
							b.Stages = stages
							b.LearningRate = lr
							b.MaxDepth = depth
							if subsample > 0 {
								b.Subsample = subsample
							}
							return b
						},
					})
				}
			}
		}
	}
	return out
}

func mlpGrid(seed int64) []Candidate {
	var out []Candidate
	for _, hidden := range [][]int{{50, 25}, {100, 50}, {100, 50, 25}} {
		for _, alpha := range []float64{0.0001, 0.001, 0.01} {
			for _, lr := range []float64{0.001, 0.01} {
				out = append(out, Candidate{
					Desc: fmt.Sprintf("hidden_layer_sizes=%v alpha=%g learning_rate_init=%g", hidden, alpha, lr),
					Make: func() Classifier {
						m := NewMLP(seed)
						m.Hidden = append([]int(nil), hidden...)
						m.Alpha = alpha
						m.LearnRate = lr
						return m
					},
				})
			}
		}
	}
	return out
}
