package dataset

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNumeric_DuplicateName(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddNumeric("income", []float64{1, 2}))

	err := tbl.AddNumeric("income", []float64{3, 4})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestAddCategorical_RowMismatch(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddNumeric("income", []float64{1, 2, 3}))

	err := tbl.AddCategorical("housing", []string{"own", "rent"})
	assert.Error(t, err)
}

func TestClone_Independent(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddNumeric("income", []float64{10, 20}))

	cp := tbl.Clone()
	col, ok := cp.Column("income")
	require.True(t, ok)
	col.Floats[0] = 99

	orig, _ := tbl.Column("income")
	assert.Equal(t, 10.0, orig.Floats[0])
}

func TestMatrix_RowMajor(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddNumeric("a", []float64{1, 2}))
	require.NoError(t, tbl.AddNumeric("b", []float64{3, 4}))

	m, err := tbl.Matrix([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 1}, {4, 2}}, m)
}

func TestMatrix_RejectsCategorical(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddCategorical("housing", []string{"own"}))

	_, err := tbl.Matrix([]string{"housing"})
	assert.Error(t, err)
}

func TestConcat_CombinesColumns(t *testing.T) {
	a := New()
	require.NoError(t, a.AddNumeric("income", []float64{1, 2}))
	b := New()
	require.NoError(t, b.AddNumeric("transaction_savings_rate", []float64{0.1, 0.2}))

	joined, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"income", "transaction_savings_rate"}, joined.Names())
	assert.Equal(t, 2, joined.NumRows())
}

func TestConcat_RowMismatch(t *testing.T) {
	a := New()
	require.NoError(t, a.AddNumeric("income", []float64{1, 2}))
	b := New()
	require.NoError(t, b.AddNumeric("x", []float64{1}))

	_, err := Concat(a, b)
	assert.Error(t, err)
}

func TestConcat_NilLeft(t *testing.T) {
	b := New()
	require.NoError(t, b.AddNumeric("x", []float64{1}))

	joined, err := Concat(nil, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, joined.Names())
}

func TestFromCSV_DetectsKinds(t *testing.T) {
	data := "income,housing\n100.5,own\n,rent\n300,\n"
	tbl, err := FromCSV(strings.NewReader(data))
	require.NoError(t, err)

	income, ok := tbl.Column("income")
	require.True(t, ok)
	assert.Equal(t, Numeric, income.Kind)
	assert.True(t, math.IsNaN(income.Floats[1]))

	housing, ok := tbl.Column("housing")
	require.True(t, ok)
	assert.Equal(t, Categorical, housing.Kind)
	assert.True(t, housing.IsMissing(2))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddNumeric("income", []float64{100, math.NaN()}))
	require.NoError(t, tbl.AddCategorical("housing", []string{"own", "rent"}))

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))

	back, err := FromCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, tbl.Names(), back.Names())

	income, _ := back.Column("income")
	assert.Equal(t, 100.0, income.Floats[0])
	assert.True(t, math.IsNaN(income.Floats[1]))
}

func TestSelect_PreservesOrder(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddNumeric("a", []float64{1}))
	require.NoError(t, tbl.AddNumeric("b", []float64{2}))
	require.NoError(t, tbl.AddNumeric("c", []float64{3}))

	sub, err := tbl.Select([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sub.Names())
}
