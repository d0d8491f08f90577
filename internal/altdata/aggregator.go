package altdata

import (
	"context"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWeights is the production category blend. Transaction behavior
// carries the most signal, utility payments next, then the footprint and
// career categories.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		CategoryDigitalFootprint:    0.20,
		CategoryTransaction:         0.35,
		CategoryUtilityPayment:      0.25,
		CategoryEducationEmployment: 0.20,
	}
}

// Aggregator blends category sub-scores into one alternative-data score.
type Aggregator struct {
	scorers map[string]Scorer
	weights map[string]float64
}

// NewAggregator builds an aggregator over the given scorers. A nil weights
// map selects DefaultWeights; scorers without a weight entry are ignored
// during aggregation.
func NewAggregator(weights map[string]float64, scorers map[string]Scorer) *Aggregator {
	if weights == nil {
		weights = DefaultWeights()
	}
	if scorers == nil {
		scorers = DefaultScorers()
	}
	return &Aggregator{scorers: scorers, weights: weights}
}

// Scorer returns the registered scorer for a category, if any.
func (a *Aggregator) Scorer(category string) (Scorer, bool) {
	s, ok := a.scorers[category]
	return s, ok
}

// Categories lists the registered category names in sorted order.
func (a *Aggregator) Categories() []string {
	out := make([]string, 0, len(a.scorers))
	for name := range a.scorers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Aggregate computes the weighted mean of the given sub-scores over the
// categories that have a configured weight. No scorable categories yields
// the neutral score.
func (a *Aggregator) Aggregate(scores map[string]float64) float64 {
	total, weightSum := 0.0, 0.0
	for category, score := range scores {
		w, ok := a.weights[category]
		if !ok {
			continue
		}
		total += w * score
		weightSum += w
	}
	if weightSum == 0 {
		return NeutralScore
	}
	return clampScore(total / weightSum)
}

// ScoreAll scores every registered category in parallel and aggregates.
// Categories with no data report the neutral sub-score but are excluded
// from the aggregate, so one silent provider cannot drag the blend toward
// 50.
func (a *Aggregator) ScoreAll(ctx context.Context, data map[string]Row) (float64, map[string]float64, error) {
	subScores := make(map[string]float64, len(a.scorers))
	scored := make(map[string]float64, len(a.scorers))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for name, scorer := range a.scorers {
		name, scorer := name, scorer
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, ok := data[name]
			mu.Lock()
			defer mu.Unlock()
			if !ok || len(row) == 0 {
				subScores[name] = NeutralScore
				return nil
			}
			score := scorer.Score(row)
			subScores[name] = score
			scored[name] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}
	return a.Aggregate(scored), subScores, nil
}

// RiskBand maps an aggregate alternative-data score to a qualitative risk
// level and lending recommendation.
type RiskBand struct {
	Level          string `json:"risk_level"`
	Recommendation string `json:"recommendation"`
}

// Report is the full alternative-data assessment for one borrower.
type Report struct {
	Score          float64            `json:"overall_score"`
	RiskLevel      string             `json:"risk_level"`
	Recommendation string             `json:"recommendation"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

// Band returns the risk band for an aggregate score.
func Band(score float64) RiskBand {
	switch {
	case score >= 80:
		return RiskBand{"Very Low", "Strong Approve"}
	case score >= 70:
		return RiskBand{"Low", "Approve"}
	case score >= 60:
		return RiskBand{"Moderate", "Conditionally Approve"}
	case score >= 50:
		return RiskBand{"Moderate-High", "Review Required"}
	case score >= 40:
		return RiskBand{"High", "Conditionally Decline"}
	default:
		return RiskBand{"Very High", "Decline"}
	}
}

// Assess scores all categories and attaches the risk band.
func (a *Aggregator) Assess(ctx context.Context, data map[string]Row) (*Report, error) {
	overall, subScores, err := a.ScoreAll(ctx, data)
	if err != nil {
		return nil, err
	}
	band := Band(overall)
	log.Printf("alternative data assessment: score=%.1f risk=%s", overall, band.Level)
	return &Report{
		Score:          overall,
		RiskLevel:      band.Level,
		Recommendation: band.Recommendation,
		CategoryScores: subScores,
	}, nil
}
