package scoring

// Bounds of the human-facing creditworthiness score.
const (
	MinScore = 300
	MaxScore = 850
	// scoreSpan is the probability-to-score slope: a default probability
	// of 1.0 maps 550 points below the ceiling.
	scoreSpan = 550
)

// ProbabilityToScore maps a default probability to the bounded 300-850
// score. Pure and monotonically non-increasing in the probability.
func ProbabilityToScore(probability float64) int {
	score := int(float64(MaxScore) - scoreSpan*probability)
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
