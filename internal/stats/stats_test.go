package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian_OddAndEven(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))
}

func TestMedian_Empty(t *testing.T) {
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestStd_KnownValue(t *testing.T) {
	// Sample std of {2,4,4,4,5,5,7,9} is ~2.138.
	got := Std([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 2.138, got, 0.001)
}

func TestSkewness_SymmetricNearZero(t *testing.T) {
	got := Skewness([]float64{1, 2, 3, 4, 5})
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestSkewness_RightTailPositive(t *testing.T) {
	got := Skewness([]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 100})
	assert.Greater(t, got, 1.0)
}

func TestSkewness_ConstantIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Skewness([]float64{3, 3, 3, 3}))
}

func TestDropNaN_FiltersOnlyNaN(t *testing.T) {
	got := DropNaN([]float64{1, math.NaN(), 2, math.NaN()})
	assert.Equal(t, []float64{1, 2}, got)
}

func TestMinMax(t *testing.T) {
	values := []float64{3, -1, 7, 2}
	assert.Equal(t, -1.0, Min(values))
	assert.Equal(t, 7.0, Max(values))
}
