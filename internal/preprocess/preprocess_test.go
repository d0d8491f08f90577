package preprocess

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credit-scorer/internal/dataset"
	"github.com/jonathan/credit-scorer/internal/stats"
	"github.com/jonathan/credit-scorer/internal/taxonomy"
)

func trainingTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("income", []float64{30000, 45000, math.NaN(), 80000, 52000}))
	require.NoError(t, tbl.AddCategorical("housing_status", []string{"own", "rent", "", "own", "mortgage"}))
	return tbl
}

func TestTransform_BeforeFitFails(t *testing.T) {
	tbl := trainingTable(t)
	plan := Build(taxonomy.Classify(tbl))

	_, _, err := plan.Transform(tbl)
	assert.Error(t, err)
}

func TestFitTransform_OutputShapeAndNames(t *testing.T) {
	tbl := trainingTable(t)
	plan := Build(taxonomy.Classify(tbl))

	rows, names, err := plan.FitTransform(tbl)
	require.NoError(t, err)

	// income + one indicator per seen housing category.
	assert.Equal(t, []string{"income", "housing_status=mortgage", "housing_status=own", "housing_status=rent"}, names)
	require.Len(t, rows, 5)
	assert.Len(t, rows[0], 4)
}

func TestFitTransform_NumericStandardized(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("income", []float64{10, 20, 30, 40, 50}))
	plan := Build(taxonomy.Classify(tbl))

	rows, _, err := plan.FitTransform(tbl)
	require.NoError(t, err)

	col := make([]float64, len(rows))
	for i, row := range rows {
		col[i] = row[0]
	}
	assert.InDelta(t, 0.0, stats.Mean(col), 1e-9)
	// Transformed output keeps the input ordering.
	assert.Less(t, col[0], col[4])
}

func TestTransform_ImputesMissingNumericWithMedian(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("income", []float64{10, 20, 30, 40, 50}))
	plan := Build(taxonomy.Classify(tbl))
	_, _, err := plan.FitTransform(tbl)
	require.NoError(t, err)

	fresh := dataset.New()
	require.NoError(t, fresh.AddNumeric("income", []float64{math.NaN(), 30}))
	rows, _, err := plan.Transform(fresh)
	require.NoError(t, err)

	// Median of the training column is 30, so a missing value and an
	// explicit 30 must transform identically.
	assert.InDelta(t, rows[1][0], rows[0][0], 1e-12)
}

func TestTransform_UnseenCategoryAllZero(t *testing.T) {
	tbl := trainingTable(t)
	plan := Build(taxonomy.Classify(tbl))
	_, _, err := plan.FitTransform(tbl)
	require.NoError(t, err)

	fresh := dataset.New()
	require.NoError(t, fresh.AddNumeric("income", []float64{40000}))
	require.NoError(t, fresh.AddCategorical("housing_status", []string{"houseboat"}))

	rows, names, err := plan.Transform(fresh)
	require.NoError(t, err)

	for j, name := range names {
		if name == "income" {
			continue
		}
		assert.Equal(t, 0.0, rows[0][j], "indicator %s should be zero", name)
	}
}

func TestTransform_MissingColumnTreatedAsAllMissing(t *testing.T) {
	tbl := trainingTable(t)
	plan := Build(taxonomy.Classify(tbl))
	_, _, err := plan.FitTransform(tbl)
	require.NoError(t, err)

	fresh := dataset.New()
	require.NoError(t, fresh.AddNumeric("income", []float64{40000}))
	rows, _, err := plan.Transform(fresh)
	require.NoError(t, err)

	// housing_status is absent: the row imputes to the mode ("own") and
	// exactly one indicator fires.
	ones := 0
	for _, v := range rows[0][1:] {
		if v == 1 {
			ones++
		}
	}
	assert.Equal(t, 1, ones)
}

func TestTransform_PlanImmutableAcrossCalls(t *testing.T) {
	tbl := trainingTable(t)
	plan := Build(taxonomy.Classify(tbl))
	first, _, err := plan.FitTransform(tbl)
	require.NoError(t, err)

	shifted := dataset.New()
	require.NoError(t, shifted.AddNumeric("income", []float64{1e6, 2e6, 3e6, 4e6, 5e6}))
	require.NoError(t, shifted.AddCategorical("housing_status", []string{"own", "own", "own", "own", "own"}))
	_, _, err = plan.Transform(shifted)
	require.NoError(t, err)

	again, _, err := plan.Transform(tbl)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestFit_EmptyColumnSetsPassthrough(t *testing.T) {
	plan := Build(taxonomy.Taxonomy{})
	tbl := dataset.New()

	rows, names, err := plan.FitTransform(tbl)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, rows)
}

func TestFitNumeric_ConstantColumnFallsBackToCentering(t *testing.T) {
	state := fitNumeric([]float64{5, 5, 5, 5})

	assert.False(t, state.UsePower)
	assert.Equal(t, 0.0, state.Std)
}

func TestYeoJohnson_IdentityAtLambdaOne(t *testing.T) {
	assert.InDelta(t, 3.0, yeoJohnson(3, 1), 1e-12)
	assert.InDelta(t, 0.0, yeoJohnson(0, 1), 1e-12)
}

func TestYeoJohnson_NegativeBranch(t *testing.T) {
	// λ=0 on negatives uses the 2−λ branch.
	got := yeoJohnson(-3, 0)
	want := -(math.Pow(4, 2) - 1) / 2
	assert.InDelta(t, want, got, 1e-12)
}

func TestFitLambda_ReducesSkew(t *testing.T) {
	// Strongly right-skewed sample.
	values := []float64{1, 1.5, 2, 2, 3, 4, 5, 8, 20, 90, 250}
	lambda, ok := fitLambda(values)
	require.True(t, ok)

	transformed := make([]float64, len(values))
	for i, v := range values {
		transformed[i] = yeoJohnson(v, lambda)
	}
	assert.Less(t, math.Abs(stats.Skewness(transformed)), math.Abs(stats.Skewness(values)))
}
