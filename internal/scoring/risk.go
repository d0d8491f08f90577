package scoring

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/jonathan/credit-scorer/internal/dataset"
	"github.com/jonathan/credit-scorer/internal/model"
	"github.com/jonathan/credit-scorer/internal/stats"
)

// riskFeatures is the fixed feature list of the traditional loan risk
// model, in matrix order.
var riskFeatures = []string{
	"loan_amount",
	"interest_rate",
	"term_days",
	"borrower_credit_score",
	"borrower_income",
	"borrower_debt_to_income",
	"borrower_employment_years",
	"is_collateralized",
	"collateral_value",
	"collateral_value_to_loan_ratio",
	"borrower_previous_loans",
	"borrower_previous_defaults",
}

// RiskModel is the traditional risk scorer over a fixed set of loan and
// borrower attributes. Train learns imputation medians, standardization,
// and a grid-searched random forest; Score maps repayment probability to
// an integer 0-100 where higher is better.
type RiskModel struct {
	CVFolds int
	Seed    int64

	Medians    map[string]float64
	Means      []float64
	Stds       []float64
	Forest     model.Classifier
	BestConfig string
	Fitted     bool
}

// NewRiskModel returns an untrained traditional risk model.
func NewRiskModel(cvFolds int, seed int64) *RiskModel {
	if cvFolds < 2 {
		cvFolds = 5
	}
	return &RiskModel{CVFolds: cvFolds, Seed: seed}
}

// Train fits the model on loan records labeled 1 for default.
func (m *RiskModel) Train(ctx context.Context, table *dataset.Table, y []int) (*model.Metrics, error) {
	if table == nil || table.NumRows() == 0 {
		return nil, ErrEmptyDataset
	}
	if err := checkBinaryTarget(y, table.NumRows()); err != nil {
		return nil, err
	}

	raw := m.extract(table, nil)

	// Learn per-feature medians from the training batch, then impute.
	m.Medians = make(map[string]float64, len(riskFeatures))
	for j, name := range riskFeatures {
		column := make([]float64, 0, len(raw))
		for _, row := range raw {
			if !math.IsNaN(row[j]) {
				column = append(column, row[j])
			}
		}
		median := stats.Median(column)
		if math.IsNaN(median) {
			median = 0
		}
		m.Medians[name] = median
	}
	impute(raw, m.medianVector())

	m.Means = make([]float64, len(riskFeatures))
	m.Stds = make([]float64, len(riskFeatures))
	for j := range riskFeatures {
		column := make([]float64, len(raw))
		for i, row := range raw {
			column[i] = row[j]
		}
		m.Means[j] = stats.Mean(column)
		std := stats.Std(column)
		if math.IsNaN(std) || std <= 0 {
			std = 0
		}
		m.Stds[j] = std
	}
	standardize(raw, m.Means, m.Stds)

	trainIdx, testIdx := model.StratifiedSplit(y, heldOutFraction, m.Seed)
	trainX, trainY := subset(raw, y, trainIdx)
	testX, testY := subset(raw, y, testIdx)

	grid := model.Grid(model.FamilyRandomForest, m.Seed)
	result, err := model.GridSearch(ctx, grid, trainX, trainY, m.CVFolds, m.Seed)
	if err != nil {
		return nil, fmt.Errorf("risk model grid search failed: %w", err)
	}
	log.Printf("risk model grid search: best %s (cv roc_auc=%.4f)", result.BestDesc, result.BestScore)

	m.Forest = grid[result.BestIndex].Make()
	if err := m.Forest.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("risk model fit failed: %w", err)
	}
	m.BestConfig = result.BestDesc

	probs, err := m.Forest.PredictProba(testX)
	if err != nil {
		return nil, fmt.Errorf("risk model validation failed: %w", err)
	}
	metrics := model.Evaluate(testY, probs)
	m.Fitted = true
	return &metrics, nil
}

// Score returns int(P(repay)·100) per row, in [0,100], higher is better.
func (m *RiskModel) Score(table *dataset.Table) ([]int, error) {
	if !m.Fitted {
		return nil, ErrNotTrained
	}

	raw := m.extract(table, zeroVector())
	standardize(raw, m.Means, m.Stds)

	probs, err := m.Forest.PredictProba(raw)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		score := int((1 - p) * 100)
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		out[i] = score
	}
	return out, nil
}

// extract builds the fixed-order feature matrix, deriving the collateral
// ratio when absent. Missing values become NaN, or the fill vector's entry
// when one is given (prediction-time imputation uses zeros).
func (m *RiskModel) extract(table *dataset.Table, fill []float64) [][]float64 {
	n := table.NumRows()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, len(riskFeatures))
	}

	for j, name := range riskFeatures {
		col, ok := table.Column(name)
		for i := 0; i < n; i++ {
			v := math.NaN()
			if ok && col.Kind == dataset.Numeric && !math.IsNaN(col.Floats[i]) {
				v = col.Floats[i]
			} else if name == "collateral_value_to_loan_ratio" {
				v = collateralRatio(table, i)
			}
			if math.IsNaN(v) && fill != nil {
				v = fill[j]
			}
			out[i][j] = v
		}
	}
	return out
}

// collateralRatio derives collateral_value / loan_amount, 0 when the loan
// amount is zero or either input is missing.
func collateralRatio(table *dataset.Table, row int) float64 {
	collateral, ok1 := table.Column("collateral_value")
	loan, ok2 := table.Column("loan_amount")
	if !ok1 || !ok2 {
		return math.NaN()
	}
	c, l := collateral.Floats[row], loan.Floats[row]
	if math.IsNaN(c) || math.IsNaN(l) || l == 0 {
		return 0
	}
	return c / l
}

func (m *RiskModel) medianVector() []float64 {
	out := make([]float64, len(riskFeatures))
	for j, name := range riskFeatures {
		out[j] = m.Medians[name]
	}
	return out
}

func zeroVector() []float64 {
	return make([]float64, len(riskFeatures))
}

func impute(rows [][]float64, fill []float64) {
	for _, row := range rows {
		for j, v := range row {
			if math.IsNaN(v) {
				row[j] = fill[j]
			}
		}
	}
}

func standardize(rows [][]float64, means, stds []float64) {
	for _, row := range rows {
		for j := range row {
			if stds[j] > 0 {
				row[j] = (row[j] - means[j]) / stds[j]
			} else {
				row[j] = row[j] - means[j]
			}
		}
	}
}

func subset(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for k, i := range idx {
		outX[k] = X[i]
		outY[k] = y[i]
	}
	return outX, outY
}
