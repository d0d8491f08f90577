// Package model provides the classifier families behind the scoring
// pipeline: random forest, gradient boosting variants, a multilayer
// perceptron, and voting/stacking committees, together with stratified
// splitting, k-fold cross-validated grid search, and validation metrics.
// All families are deterministic for a fixed seed regardless of the
// degree of parallelism used during fitting.
package model

import (
	"encoding/gob"
	"errors"
)

// ErrNotFitted is returned when prediction is requested before Fit.
var ErrNotFitted = errors.New("model is not fitted")

// ErrEmptyTrainingSet is returned when Fit receives no rows.
var ErrEmptyTrainingSet = errors.New("training set is empty")

// Classifier is a binary classifier over row-major feature matrices.
// PredictProba returns the positive-class probability per row.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	PredictProba(X [][]float64) ([]float64, error)
	// Clone returns a fresh unfit copy with the same hyperparameters,
	// used for cross-validation refits.
	Clone() Classifier
}

// ImportanceReporter is implemented by families that expose per-feature
// importances after fitting.
type ImportanceReporter interface {
	FeatureImportances() []float64
}

// Regressor is a real-valued model used by the trainable alternative-data
// scorers.
type Regressor interface {
	FitRegression(X [][]float64, y []float64) error
	PredictRegression(X [][]float64) ([]float64, error)
}

func init() {
	// Concrete families cross a gob boundary inside the persisted model
	// bundle, where the classifier field is an interface.
	gob.Register(&RandomForest{})
	gob.Register(&GradientBoosting{})
	gob.Register(&MLP{})
	gob.Register(&Logistic{})
	gob.Register(&Voting{})
	gob.Register(&Stacking{})
}

func validateBinary(X [][]float64, y []int) error {
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return errors.New("feature matrix and target length mismatch")
	}
	seen := [2]bool{}
	for _, label := range y {
		if label != 0 && label != 1 {
			return errors.New("target is not binary")
		}
		seen[label] = true
	}
	if !seen[0] || !seen[1] {
		return errors.New("target must contain both classes")
	}
	return nil
}
