package model

import (
	"fmt"
	"math"
	"math/rand"
)

// Logistic is an L2-regularized logistic regression trained by gradient
// descent. It serves as the stacking meta-learner and as a standalone
// linear classifier.
type Logistic struct {
	LearnRate float64
	Epochs    int
	L2        float64
	Seed      int64

	Coef      []float64
	Intercept float64
	Fitted    bool
}

// NewLogistic returns an unfit logistic regression with defaults.
func NewLogistic(seed int64) *Logistic {
	return &Logistic{LearnRate: 0.1, Epochs: 500, L2: 0.001, Seed: seed}
}

// Clone returns a fresh unfit copy with the same hyperparameters.
func (l *Logistic) Clone() Classifier {
	clone := *l
	clone.Coef = nil
	clone.Intercept = 0
	clone.Fitted = false
	return &clone
}

// Fit runs full-batch gradient descent on the logistic loss.
func (l *Logistic) Fit(X [][]float64, y []int) error {
	if err := validateBinary(X, y); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(l.Seed))
	l.Coef = make([]float64, len(X[0]))
	for j := range l.Coef {
		l.Coef[j] = (2*rng.Float64() - 1) * 0.01
	}
	l.Intercept = 0

	n := float64(len(X))
	for epoch := 0; epoch < l.Epochs; epoch++ {
		gradC := make([]float64, len(l.Coef))
		gradI := 0.0
		for i, row := range X {
			err := sigmoid(l.margin(row)) - float64(y[i])
			gradI += err
			for j, v := range row {
				gradC[j] += err * v
			}
		}
		l.Intercept -= l.LearnRate * gradI / n
		for j := range l.Coef {
			l.Coef[j] -= l.LearnRate * (gradC[j]/n + l.L2*l.Coef[j])
		}
	}

	l.Fitted = true
	return nil
}

func (l *Logistic) margin(row []float64) float64 {
	sum := l.Intercept
	for j, v := range row {
		sum += l.Coef[j] * v
	}
	return sum
}

// PredictProba returns the positive-class probability per row.
func (l *Logistic) PredictProba(X [][]float64) ([]float64, error) {
	if !l.Fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(l.margin(row))
	}
	return out, nil
}

// Ridge is an L2-regularized linear regressor solved in closed form. It is
// the learned variant behind the education/employment scorer.
type Ridge struct {
	Alpha float64

	Coef      []float64
	Intercept float64
	Fitted    bool
}

// NewRidge returns an unfit ridge regressor.
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

// FitRegression solves the regularized normal equations. Features are
// centered so the intercept is not penalized.
func (r *Ridge) FitRegression(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature matrix has %d rows, target has %d", len(X), len(y))
	}

	n := len(X)
	p := len(X[0])

	meanX := make([]float64, p)
	for _, row := range X {
		for j, v := range row {
			meanX[j] += v
		}
	}
	for j := range meanX {
		meanX[j] /= float64(n)
	}
	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(n)

	// XtX + αI and Xty over centered data.
	a := make([][]float64, p)
	b := make([]float64, p)
	for j := 0; j < p; j++ {
		a[j] = make([]float64, p)
	}
	for i, row := range X {
		dy := y[i] - meanY
		for j := 0; j < p; j++ {
			dj := row[j] - meanX[j]
			b[j] += dj * dy
			for k := j; k < p; k++ {
				a[j][k] += dj * (row[k] - meanX[k])
			}
		}
	}
	for j := 0; j < p; j++ {
		for k := 0; k < j; k++ {
			a[j][k] = a[k][j]
		}
		a[j][j] += r.Alpha
	}

	coef, err := solveLinear(a, b)
	if err != nil {
		return fmt.Errorf("ridge solve failed: %w", err)
	}

	r.Coef = coef
	r.Intercept = meanY
	for j := range coef {
		r.Intercept -= coef[j] * meanX[j]
	}
	r.Fitted = true
	return nil
}

// PredictRegression applies the fitted coefficients.
func (r *Ridge) PredictRegression(X [][]float64) ([]float64, error) {
	if !r.Fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		sum := r.Intercept
		for j, v := range row {
			sum += r.Coef[j] * v
		}
		out[i] = sum
	}
	return out, nil
}

// solveLinear solves a symmetric positive system by Gaussian elimination
// with partial pivoting.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = append(append([]float64(nil), a[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			for k := col; k <= n; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := m[row][n]
		for k := row + 1; k < n; k++ {
			sum -= m[row][k] * x[k]
		}
		x[row] = sum / m[row][row]
	}
	return x, nil
}
