package model

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Voting is a soft-voting committee: the positive-class probability is the
// unweighted mean of the members' probabilities.
type Voting struct {
	Members []Classifier
	Fitted  bool
}

// NewVoting returns an unfit committee over the given members.
func NewVoting(members ...Classifier) *Voting {
	return &Voting{Members: members}
}

// Clone returns a fresh unfit copy with cloned members.
func (v *Voting) Clone() Classifier {
	members := make([]Classifier, len(v.Members))
	for i, m := range v.Members {
		members[i] = m.Clone()
	}
	return &Voting{Members: members}
}

// Fit trains the members in parallel. Each member carries its own seed, so
// the committee is deterministic regardless of scheduling.
func (v *Voting) Fit(X [][]float64, y []int) error {
	if err := validateBinary(X, y); err != nil {
		return err
	}
	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for i, member := range v.Members {
		g.Go(func() error {
			if err := member.Fit(X, y); err != nil {
				return fmt.Errorf("committee member %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	v.Fitted = true
	return nil
}

// PredictProba averages the member probabilities.
func (v *Voting) PredictProba(X [][]float64) ([]float64, error) {
	if !v.Fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for _, member := range v.Members {
		probs, err := member.PredictProba(X)
		if err != nil {
			return nil, err
		}
		for i, p := range probs {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(v.Members))
	}
	return out, nil
}

// FeatureImportances averages the importances of members that report them.
func (v *Voting) FeatureImportances() []float64 {
	var total []float64
	reporters := 0
	for _, member := range v.Members {
		rep, ok := member.(ImportanceReporter)
		if !ok {
			continue
		}
		imp := rep.FeatureImportances()
		if imp == nil {
			continue
		}
		if total == nil {
			total = make([]float64, len(imp))
		}
		for f, val := range imp {
			total[f] += val
		}
		reporters++
	}
	if reporters == 0 {
		return nil
	}
	for f := range total {
		total[f] /= float64(reporters)
	}
	return total
}

// Stacking fits a logistic meta-learner over the base members'
// out-of-fold probabilities, then refits every base member on the full
// training set.
type Stacking struct {
	Base   []Classifier
	Meta   *Logistic
	Folds  int
	Seed   int64
	Fitted bool
}

// NewStacking returns an unfit stacking committee.
func NewStacking(seed int64, base ...Classifier) *Stacking {
	return &Stacking{Base: base, Meta: NewLogistic(seed), Folds: 5, Seed: seed}
}

// Clone returns a fresh unfit copy with cloned members.
func (s *Stacking) Clone() Classifier {
	base := make([]Classifier, len(s.Base))
	for i, m := range s.Base {
		base[i] = m.Clone()
	}
	return &Stacking{Base: base, Meta: s.Meta.Clone().(*Logistic), Folds: s.Folds, Seed: s.Seed}
}

// Fit computes the out-of-fold probability matrix with cloned base members
// per fold, fits the meta-learner on it, then refits the base members on
// all rows.
func (s *Stacking) Fit(X [][]float64, y []int) error {
	if err := validateBinary(X, y); err != nil {
		return err
	}

	folds := StratifiedKFold(y, s.Folds, s.Seed)
	oof := make([][]float64, len(X))
	for i := range oof {
		oof[i] = make([]float64, len(s.Base))
	}

	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for f, testIdx := range folds {
		g.Go(func() error {
			trainIdx := complement(len(X), testIdx)
			trainX, trainY := gather(X, y, trainIdx)
			testX := gatherX(X, testIdx)

			for b, base := range s.Base {
				clone := base.Clone()
				if err := clone.Fit(trainX, trainY); err != nil {
					return fmt.Errorf("stacking fold %d base %d: %w", f, b, err)
				}
				probs, err := clone.PredictProba(testX)
				if err != nil {
					return fmt.Errorf("stacking fold %d base %d: %w", f, b, err)
				}
				for k, i := range testIdx {
					oof[i][b] = probs[k]
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.Meta.Fit(oof, y); err != nil {
		return fmt.Errorf("stacking meta-learner: %w", err)
	}

	for b, base := range s.Base {
		if err := base.Fit(X, y); err != nil {
			return fmt.Errorf("stacking base %d refit: %w", b, err)
		}
	}
	s.Fitted = true
	return nil
}

// PredictProba feeds the base probabilities through the meta-learner.
func (s *Stacking) PredictProba(X [][]float64) ([]float64, error) {
	if !s.Fitted {
		return nil, ErrNotFitted
	}
	meta := make([][]float64, len(X))
	for i := range meta {
		meta[i] = make([]float64, len(s.Base))
	}
	for b, base := range s.Base {
		probs, err := base.PredictProba(X)
		if err != nil {
			return nil, err
		}
		for i, p := range probs {
			meta[i][b] = p
		}
	}
	return s.Meta.PredictProba(meta)
}

// FeatureImportances averages the base members' importances.
func (s *Stacking) FeatureImportances() []float64 {
	return (&Voting{Members: s.Base}).FeatureImportances()
}

func complement(n int, exclude []int) []int {
	excluded := make(map[int]bool, len(exclude))
	for _, i := range exclude {
		excluded[i] = true
	}
	out := make([]int, 0, n-len(exclude))
	for i := 0; i < n; i++ {
		if !excluded[i] {
			out = append(out, i)
		}
	}
	return out
}

func gather(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for k, i := range idx {
		outX[k] = X[i]
		outY[k] = y[i]
	}
	return outX, outY
}

func gatherX(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for k, i := range idx {
		out[k] = X[i]
	}
	return out
}
