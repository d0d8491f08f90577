package model

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SearchResult summarizes a cross-validated grid search.
type SearchResult struct {
	BestIndex int
	BestDesc  string
	BestScore float64
	Scores    []float64
}

// GridSearch evaluates every candidate by stratified k-fold ROC-AUC over
// the training rows and returns the best configuration. Candidates run in
// parallel with a bounded fan-out; each writes its score to a pre-assigned
// slot and ties break toward the earlier candidate, so the winner is
// deterministic.
func GridSearch(ctx context.Context, candidates []Candidate, X [][]float64, y []int, folds int, seed int64) (*SearchResult, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates to search")
	}

	foldSets := StratifiedKFold(y, folds, seed)
	scores := make([]float64, len(candidates))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for c, candidate := range candidates {
		g.Go(func() error {
			total := 0.0
			for f, testIdx := range foldSets {
				trainIdx := complement(len(X), testIdx)
				trainX, trainY := gather(X, y, trainIdx)
				testX, testY := gather(X, y, testIdx)

				clf := candidate.Make()
				if err := clf.Fit(trainX, trainY); err != nil {
					return fmt.Errorf("candidate %q fold %d: %w", candidate.Desc, f, err)
				}
				probs, err := clf.PredictProba(testX)
				if err != nil {
					return fmt.Errorf("candidate %q fold %d: %w", candidate.Desc, f, err)
				}
				total += ROCAUC(testY, probs)
			}
			scores[c] = total / float64(len(foldSets))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := 0
	for c, score := range scores {
		if score > scores[best] {
			best = c
		}
	}
	return &SearchResult{
		BestIndex: best,
		BestDesc:  candidates[best].Desc,
		BestScore: scores[best],
		Scores:    scores,
	}, nil
}
