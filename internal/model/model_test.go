package model

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable returns a two-feature dataset where the positive class sits in
// the upper-right quadrant with some seeded noise.
func separable(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		label := i % 2
		shift := float64(label)*2 - 1
		X[i] = []float64{shift + rng.NormFloat64()*0.5, shift + rng.NormFloat64()*0.5}
		y[i] = label
	}
	return X, y
}

func TestValidateBinary_RejectsBadTargets(t *testing.T) {
	assert.ErrorIs(t, validateBinary(nil, nil), ErrEmptyTrainingSet)
	assert.Error(t, validateBinary([][]float64{{1}, {2}}, []int{0, 2}))
	assert.Error(t, validateBinary([][]float64{{1}, {2}}, []int{1, 1}), "single-class target")
	assert.Error(t, validateBinary([][]float64{{1}}, []int{0, 1}), "length mismatch")
}

func TestRandomForest_LearnsSeparableData(t *testing.T) {
	X, y := separable(200, 7)
	forest := NewRandomForest(42)
	forest.NumTrees = 25
	require.NoError(t, forest.Fit(X, y))

	probs, err := forest.PredictProba([][]float64{{2, 2}, {-2, -2}})
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.8)
	assert.Less(t, probs[1], 0.2)
}

func TestRandomForest_DeterministicAcrossFits(t *testing.T) {
	X, y := separable(150, 11)
	test, _ := separable(20, 99)

	run := func() []float64 {
		forest := NewRandomForest(42)
		forest.NumTrees = 20
		require.NoError(t, forest.Fit(X, y))
		probs, err := forest.PredictProba(test)
		require.NoError(t, err)
		return probs
	}
	assert.Equal(t, run(), run())
}

func TestRandomForest_ImportancesSumToOne(t *testing.T) {
	X, y := separable(150, 3)
	forest := NewRandomForest(42)
	forest.NumTrees = 10
	require.NoError(t, forest.Fit(X, y))

	sum := 0.0
	for _, v := range forest.FeatureImportances() {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestGradientBoosting_LearnsSeparableData(t *testing.T) {
	X, y := separable(200, 5)
	booster := NewGradientBoosting(42)
	booster.Stages = 30
	require.NoError(t, booster.Fit(X, y))

	probs, err := booster.PredictProba([][]float64{{2, 2}, {-2, -2}})
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.8)
	assert.Less(t, probs[1], 0.2)
}

func TestLGB_HistogramVariantFits(t *testing.T) {
	X, y := separable(300, 13)
	booster := NewLGB(42)
	booster.Stages = 20
	require.NoError(t, booster.Fit(X, y))

	probs, err := booster.PredictProba([][]float64{{2, 2}})
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.5)
}

func TestMLP_LearnsSeparableData(t *testing.T) {
	X, y := separable(200, 17)
	nn := NewMLP(42)
	nn.Hidden = []int{16}
	nn.Epochs = 100
	require.NoError(t, nn.Fit(X, y))

	probs, err := nn.PredictProba([][]float64{{2, 2}, {-2, -2}})
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.7)
	assert.Less(t, probs[1], 0.3)
}

func TestVoting_AveragesMembers(t *testing.T) {
	X, y := separable(200, 19)
	committee := NewVoting(NewRandomForest(42), NewGradientBoosting(43))
	if forest, ok := committee.Members[0].(*RandomForest); ok {
		forest.NumTrees = 15
	}
	if booster, ok := committee.Members[1].(*GradientBoosting); ok {
		booster.Stages = 15
	}
	require.NoError(t, committee.Fit(X, y))

	probs, err := committee.PredictProba([][]float64{{2, 2}})
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.7)
	assert.NotNil(t, committee.FeatureImportances())
}

func TestStacking_FitsMetaLearner(t *testing.T) {
	X, y := separable(200, 23)
	forest := NewRandomForest(42)
	forest.NumTrees = 10
	booster := NewGradientBoosting(43)
	booster.Stages = 10
	stack := NewStacking(42, forest, booster)
	require.NoError(t, stack.Fit(X, y))

	probs, err := stack.PredictProba([][]float64{{2, 2}, {-2, -2}})
	require.NoError(t, err)
	assert.Greater(t, probs[0], probs[1])
}

func TestPredictProba_BeforeFitFails(t *testing.T) {
	for _, clf := range []Classifier{NewRandomForest(1), NewGradientBoosting(1), NewMLP(1), NewLogistic(1)} {
		_, err := clf.PredictProba([][]float64{{0, 0}})
		assert.ErrorIs(t, err, ErrNotFitted)
	}
}

func TestNormalize_UnknownFamilyFallsBack(t *testing.T) {
	assert.Equal(t, FamilyEnsemble, Normalize("quantum"))
	assert.Equal(t, FamilyRandomForest, Normalize("rf"))
}

func TestNew_UnknownFamilyBuildsDefaultEnsemble(t *testing.T) {
	clf := New("quantum", 42)
	committee, ok := clf.(*Voting)
	require.True(t, ok)
	assert.Len(t, committee.Members, 4)
}

func TestGrid_CommitteeFamiliesHaveNoGrid(t *testing.T) {
	assert.Nil(t, Grid(FamilyVoting, 42))
	assert.Nil(t, Grid(FamilyStacking, 42))
	assert.Nil(t, Grid(FamilyEnsemble, 42))
	assert.Len(t, Grid(FamilyRandomForest, 42), 18)
	assert.Len(t, Grid(FamilyGradient, 42), 12)
	assert.Len(t, Grid(FamilyXGB, 42), 36)
}

func TestStratifiedSplit_PreservesClassBalance(t *testing.T) {
	y := make([]int, 100)
	for i := 90; i < 100; i++ {
		y[i] = 1
	}
	train, test := StratifiedSplit(y, 0.2, 42)

	assert.Len(t, train, 80)
	assert.Len(t, test, 20)
	positives := 0
	for _, i := range test {
		positives += y[i]
	}
	assert.Equal(t, 2, positives)
}

func TestStratifiedKFold_PartitionsAllRows(t *testing.T) {
	y := make([]int, 50)
	for i := 0; i < 10; i++ {
		y[i] = 1
	}
	folds := StratifiedKFold(y, 5, 42)
	require.Len(t, folds, 5)

	seen := make(map[int]int)
	for _, fold := range folds {
		for _, i := range fold {
			seen[i]++
		}
	}
	assert.Len(t, seen, 50)
	for i, count := range seen {
		assert.Equal(t, 1, count, "row %d assigned to %d folds", i, count)
	}
}

func TestROCAUC_PerfectAndInverted(t *testing.T) {
	y := []int{0, 0, 1, 1}
	assert.InDelta(t, 1.0, ROCAUC(y, []float64{0.1, 0.2, 0.8, 0.9}), 1e-9)
	assert.InDelta(t, 0.0, ROCAUC(y, []float64{0.9, 0.8, 0.2, 0.1}), 1e-9)
	assert.InDelta(t, 0.5, ROCAUC(y, []float64{0.5, 0.5, 0.5, 0.5}), 1e-9)
}

func TestEvaluate_KnownConfusion(t *testing.T) {
	y := []int{1, 1, 0, 0}
	proba := []float64{0.9, 0.4, 0.6, 0.1}
	m := Evaluate(y, proba)

	assert.InDelta(t, 0.5, m.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, m.Precision, 1e-9)
	assert.InDelta(t, 0.5, m.Recall, 1e-9)
	assert.InDelta(t, 0.5, m.F1, 1e-9)
}

func TestGridSearch_PicksBetterCandidate(t *testing.T) {
	X, y := separable(120, 29)

	weak := Candidate{Desc: "weak", Make: func() Classifier {
		f := NewRandomForest(42)
		f.NumTrees = 1
		f.MaxDepth = 1
		return f
	}}
	strong := Candidate{Desc: "strong", Make: func() Classifier {
		f := NewRandomForest(42)
		f.NumTrees = 20
		return f
	}}

	result, err := GridSearch(context.Background(), []Candidate{weak, strong}, X, y, 3, 42)
	require.NoError(t, err)
	assert.Equal(t, "strong", result.BestDesc)
	assert.Len(t, result.Scores, 2)
	assert.GreaterOrEqual(t, result.BestScore, result.Scores[0])
}

func TestRidge_RecoversLinearRelation(t *testing.T) {
	X := [][]float64{{1, 0}, {2, 1}, {3, 1}, {4, 0}, {5, 1}, {6, 0}}
	y := make([]float64, len(X))
	for i, row := range X {
		y[i] = 2*row[0] + 3*row[1] + 1
	}

	ridge := NewRidge(0.001)
	require.NoError(t, ridge.FitRegression(X, y))
	preds, err := ridge.PredictRegression([][]float64{{7, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 18.0, preds[0], 0.3)
}

func TestForestRegressor_FitsMeanStructure(t *testing.T) {
	X := make([][]float64, 100)
	y := make([]float64, 100)
	for i := range X {
		X[i] = []float64{float64(i % 10)}
		y[i] = float64(i%10) * 0.1
	}
	forest := NewForestRegressor(20, 5, 42)
	require.NoError(t, forest.FitRegression(X, y))

	preds, err := forest.PredictRegression([][]float64{{9}})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, preds[0], 0.1)
}
