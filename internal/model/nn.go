package model

import (
	"math"
	"math/rand"
)

// MLP is a fully connected ReLU network with a sigmoid output, trained with
// Adam on the logistic loss.
type MLP struct {
	Hidden    []int
	Alpha     float64 // L2 penalty
	LearnRate float64
	Epochs    int
	BatchSize int
	Seed      int64

	Weights [][][]float64 // [layer][out][in]
	Biases  [][]float64   // [layer][out]
	Fitted  bool
}

// NewMLP returns an unfit network with the family defaults.
func NewMLP(seed int64) *MLP {
	return &MLP{
		Hidden:    []int{100, 50},
		Alpha:     0.0001,
		LearnRate: 0.001,
		Epochs:    200,
		BatchSize: 200,
		Seed:      seed,
	}
}

// Clone returns a fresh unfit copy with the same hyperparameters.
func (m *MLP) Clone() Classifier {
	clone := *m
	clone.Hidden = append([]int(nil), m.Hidden...)
	clone.Weights = nil
	clone.Biases = nil
	clone.Fitted = false
	return &clone
}

// Fit trains the network. Batches are shuffled per epoch from a single
// seeded generator, so training is reproducible.
func (m *MLP) Fit(X [][]float64, y []int) error {
	if err := validateBinary(X, y); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(m.Seed))
	sizes := append([]int{len(X[0])}, m.Hidden...)
	sizes = append(sizes, 1)

	m.Weights = make([][][]float64, len(sizes)-1)
	m.Biases = make([][]float64, len(sizes)-1)
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		// Glorot-style uniform initialization.
		bound := math.Sqrt(6.0 / float64(in+out))
		m.Weights[l] = make([][]float64, out)
		m.Biases[l] = make([]float64, out)
		for o := 0; o < out; o++ {
			m.Weights[l][o] = make([]float64, in)
			for i := 0; i < in; i++ {
				m.Weights[l][o][i] = (2*rng.Float64() - 1) * bound
			}
		}
	}

	opt := newAdam(m.Weights, m.Biases, m.LearnRate)
	batch := m.BatchSize
	if batch <= 0 || batch > len(X) {
		batch = len(X)
	}

	for epoch := 0; epoch < m.Epochs; epoch++ {
		order := rng.Perm(len(X))
		for start := 0; start < len(order); start += batch {
			end := start + batch
			if end > len(order) {
				end = len(order)
			}
			m.step(X, y, order[start:end], opt)
		}
	}

	m.Fitted = true
	return nil
}

// step runs one Adam update on a mini-batch.
func (m *MLP) step(X [][]float64, y []int, idx []int, opt *adam) {
	gradW, gradB := zeroLike(m.Weights, m.Biases)

	for _, i := range idx {
		activations, pre := m.forward(X[i])
		// Output delta for sigmoid + log loss.
		delta := []float64{activations[len(activations)-1][0] - float64(y[i])}

		for l := len(m.Weights) - 1; l >= 0; l-- {
			prev := activations[l]
			for o := range m.Weights[l] {
				gradB[l][o] += delta[o]
				for j := range m.Weights[l][o] {
					gradW[l][o][j] += delta[o] * prev[j]
				}
			}
			if l == 0 {
				break
			}
			next := make([]float64, len(m.Weights[l][0]))
			for j := range next {
				sum := 0.0
				for o := range m.Weights[l] {
					sum += delta[o] * m.Weights[l][o][j]
				}
				if pre[l-1][j] <= 0 { // ReLU gradient
					sum = 0
				}
				next[j] = sum
			}
			delta = next
		}
	}

	scale := 1 / float64(len(idx))
	for l := range gradW {
		for o := range gradW[l] {
			gradB[l][o] *= scale
			for j := range gradW[l][o] {
				gradW[l][o][j] = gradW[l][o][j]*scale + m.Alpha*m.Weights[l][o][j]
			}
		}
	}
	opt.update(m.Weights, m.Biases, gradW, gradB)
}

// forward returns the post-activation values per layer (including the
// input layer) and the pre-activation values per hidden/output layer.
func (m *MLP) forward(row []float64) ([][]float64, [][]float64) {
	activations := make([][]float64, len(m.Weights)+1)
	pre := make([][]float64, len(m.Weights))
	activations[0] = row

	for l := range m.Weights {
		out := make([]float64, len(m.Weights[l]))
		act := make([]float64, len(m.Weights[l]))
		for o := range m.Weights[l] {
			sum := m.Biases[l][o]
			for j, w := range m.Weights[l][o] {
				sum += w * activations[l][j]
			}
			out[o] = sum
			if l == len(m.Weights)-1 {
				act[o] = sigmoid(sum)
			} else if sum > 0 {
				act[o] = sum
			}
		}
		pre[l] = out
		activations[l+1] = act
	}
	return activations, pre
}

// PredictProba runs the forward pass per row.
func (m *MLP) PredictProba(X [][]float64) ([]float64, error) {
	if !m.Fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		activations, _ := m.forward(row)
		out[i] = activations[len(activations)-1][0]
	}
	return out, nil
}

// adam is a standard Adam optimizer over the network parameters.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	mw, vw                [][][]float64
	mb, vb                [][]float64
}

func newAdam(weights [][][]float64, biases [][]float64, lr float64) *adam {
	mw, mb := zeroLike(weights, biases)
	vw, vb := zeroLike(weights, biases)
	return &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8, mw: mw, vw: vw, mb: mb, vb: vb}
}

func (a *adam) update(weights [][][]float64, biases [][]float64, gradW [][][]float64, gradB [][]float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))

	for l := range weights {
		for o := range weights[l] {
			g := gradB[l][o]
			a.mb[l][o] = a.beta1*a.mb[l][o] + (1-a.beta1)*g
			a.vb[l][o] = a.beta2*a.vb[l][o] + (1-a.beta2)*g*g
			biases[l][o] -= a.lr * (a.mb[l][o] / c1) / (math.Sqrt(a.vb[l][o]/c2) + a.eps)

			for j := range weights[l][o] {
				g := gradW[l][o][j]
				a.mw[l][o][j] = a.beta1*a.mw[l][o][j] + (1-a.beta1)*g
				a.vw[l][o][j] = a.beta2*a.vw[l][o][j] + (1-a.beta2)*g*g
				weights[l][o][j] -= a.lr * (a.mw[l][o][j] / c1) / (math.Sqrt(a.vw[l][o][j]/c2) + a.eps)
			}
		}
	}
}

func zeroLike(weights [][][]float64, biases [][]float64) ([][][]float64, [][]float64) {
	w := make([][][]float64, len(weights))
	b := make([][]float64, len(biases))
	for l := range weights {
		w[l] = make([][]float64, len(weights[l]))
		b[l] = make([]float64, len(biases[l]))
		for o := range weights[l] {
			w[l][o] = make([]float64, len(weights[l][o]))
		}
	}
	return w, b
}
