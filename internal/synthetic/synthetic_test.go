package synthetic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_TraditionalOnly(t *testing.T) {
	table, y, err := Generate(500, 42, false)
	require.NoError(t, err)

	assert.Equal(t, 500, table.NumRows())
	assert.Equal(t, 11, table.NumCols())
	assert.Len(t, y, 500)

	for _, label := range y {
		assert.Contains(t, []int{0, 1}, label)
	}
}

func TestGenerate_WithAlternativeColumns(t *testing.T) {
	table, _, err := Generate(200, 42, true)
	require.NoError(t, err)

	assert.Equal(t, 11+16, table.NumCols())
	for _, name := range alternativeColumnOrder {
		assert.True(t, table.Has(name), name)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, ya, err := Generate(100, 7, true)
	require.NoError(t, err)
	b, yb, err := Generate(100, 7, true)
	require.NoError(t, err)

	assert.Equal(t, ya, yb)
	for _, name := range a.Names() {
		colA, _ := a.Column(name)
		colB, _ := b.Column(name)
		assert.Equal(t, colA.Floats, colB.Floats, name)
	}

	c, _, err := Generate(100, 8, true)
	require.NoError(t, err)
	colA, _ := a.Column("loan_amount")
	colC, _ := c.Column("loan_amount")
	assert.NotEqual(t, colA.Floats, colC.Floats)
}

func TestGenerate_ValueRanges(t *testing.T) {
	table, y, err := Generate(1000, 3, false)
	require.NoError(t, err)

	loan, _ := table.Column("loan_amount")
	score, _ := table.Column("credit_score")
	collateralized, _ := table.Column("is_collateralized")
	collateral, _ := table.Column("collateral_value")

	defaults := 0
	for i := 0; i < 1000; i++ {
		assert.GreaterOrEqual(t, loan.Floats[i], 1000.0)
		assert.LessOrEqual(t, loan.Floats[i], 50000.0)
		assert.GreaterOrEqual(t, score.Floats[i], 300.0)
		assert.LessOrEqual(t, score.Floats[i], 850.0)

		if collateralized.Floats[i] == 0 {
			assert.Zero(t, collateral.Floats[i])
		} else {
			assert.GreaterOrEqual(t, collateral.Floats[i], loan.Floats[i])
			assert.LessOrEqual(t, collateral.Floats[i], 2*loan.Floats[i]+1e-9)
		}
		defaults += y[i]
	}

	// Both classes must occur at a plausible base rate.
	rate := float64(defaults) / 1000
	assert.Greater(t, rate, 0.05)
	assert.Less(t, rate, 0.6)
}

func TestPoisson_MeanApproximatesLambda(t *testing.T) {
	table, _, err := Generate(2000, 5, false)
	require.NoError(t, err)

	prev, _ := table.Column("previous_loans")
	sum := 0.0
	for _, v := range prev.Floats {
		sum += v
	}
	assert.InDelta(t, 2.0, sum/2000, 0.2)
	assert.False(t, math.IsNaN(sum))
}

func TestServingView_RenamesTraditionalColumns(t *testing.T) {
	table, _, err := Generate(20, 1, true)
	require.NoError(t, err)

	view, err := ServingView(table)
	require.NoError(t, err)

	assert.True(t, view.Has("borrower_credit_score"))
	assert.False(t, view.Has("credit_score"))
	assert.True(t, view.Has("loan_amount"))
	assert.True(t, view.Has("transaction_income_stability"))
	assert.Equal(t, table.NumCols(), view.NumCols())

	src, _ := table.Column("credit_score")
	dst, _ := view.Column("borrower_credit_score")
	assert.Equal(t, src.Floats, dst.Floats)
}

func TestGenerate_RejectsNonPositiveCount(t *testing.T) {
	_, _, err := Generate(0, 1, false)
	assert.Error(t, err)
}
