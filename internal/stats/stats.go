// Package stats provides the small set of descriptive statistics used by the
// preprocessing, feature-engineering, and model packages. All functions
// ignore NaN inputs where noted and return NaN for undefined results.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the sample variance (n−1 denominator), or NaN when fewer
// than two values are given.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values)-1)
}

// Std returns the sample standard deviation.
func Std(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Median returns the middle value (mean of the two middle values for even
// counts), or NaN for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Skewness returns the adjusted Fisher-Pearson standardized moment
// coefficient, the same statistic pandas reports. Returns 0 when fewer than
// three values are given or the deviation is zero.
func Skewness(values []float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	mean := Mean(values)
	std := Std(values)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := (v - mean) / std
		sum += d * d * d
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// Min returns the smallest value, or NaN for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest value, or NaN for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// DropNaN returns the values with NaN entries removed.
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
