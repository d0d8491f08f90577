package preprocess

import (
	"math"

	"github.com/jonathan/credit-scorer/internal/stats"
)

// Search bounds and tolerance for the power-transform exponent.
const (
	lambdaLow  = -2.0
	lambdaHigh = 2.0
	lambdaTol  = 1e-5
)

// yeoJohnson applies the Yeo-Johnson transform, defined for all reals.
func yeoJohnson(x, lambda float64) float64 {
	if x >= 0 {
		if math.Abs(lambda) < 1e-12 {
			return math.Log1p(x)
		}
		return (math.Pow(x+1, lambda) - 1) / lambda
	}
	if math.Abs(lambda-2) < 1e-12 {
		return -math.Log1p(-x)
	}
	return -(math.Pow(1-x, 2-lambda) - 1) / (2 - lambda)
}

// logLikelihood is the profile log-likelihood of the Yeo-Johnson transform
// with the variance maximized out.
func logLikelihood(values []float64, lambda float64) float64 {
	transformed := make([]float64, len(values))
	for i, v := range values {
		transformed[i] = yeoJohnson(v, lambda)
	}
	variance := biasedVariance(transformed)
	if variance <= 0 || math.IsNaN(variance) || math.IsInf(variance, 0) {
		return math.Inf(-1)
	}

	n := float64(len(values))
	jacobian := 0.0
	for _, v := range values {
		if v >= 0 {
			jacobian += math.Log1p(v)
		} else {
			jacobian -= math.Log1p(-v)
		}
	}
	return -n/2*math.Log(variance) + (lambda-1)*jacobian
}

func biasedVariance(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	mean := stats.Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// fitLambda searches for the exponent maximizing the profile log-likelihood
// using golden-section search. Returns false when the input is degenerate
// (constant, too small) or no finite optimum exists, in which case the
// caller standardizes without a power transform.
func fitLambda(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	if stats.Std(values) == 0 {
		return 0, false
	}

	const phi = 0.6180339887498949
	low, high := lambdaLow, lambdaHigh
	x1 := high - phi*(high-low)
	x2 := low + phi*(high-low)
	f1 := logLikelihood(values, x1)
	f2 := logLikelihood(values, x2)

	for high-low > lambdaTol {
		if f1 < f2 {
			low = x1
			x1 = x2
			f1 = f2
			x2 = low + phi*(high-low)
			f2 = logLikelihood(values, x2)
		} else {
			high = x2
			x2 = x1
			f2 = f1
			x1 = high - phi*(high-low)
			f1 = logLikelihood(values, x1)
		}
	}

	lambda := (low + high) / 2
	if best := logLikelihood(values, lambda); math.IsInf(best, -1) || math.IsNaN(best) {
		return 0, false
	}
	return lambda, true
}
