package model

import (
	"math"
	"math/rand"
	"sort"
)

// Node is one node of a fitted decision tree. Exported so fitted trees can
// travel inside a gob-encoded model bundle.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Value     float64
	Leaf      bool
}

// Predict walks the tree for one row. Missing (NaN) feature values follow
// the left branch.
func (n *Node) Predict(row []float64) float64 {
	node := n
	for !node.Leaf {
		v := row[node.Feature]
		if math.IsNaN(v) || v <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// treeParams controls a single tree fit. The builder works in
// gradient/hessian form: the leaf value is -Σg/(Σh+λ) and splits maximize
// the corresponding gain. Plain regression trees pass g = -target, h = 1,
// λ = 0, which reduces to variance-reduction splitting with mean leaves.
type treeParams struct {
	maxDepth    int // 0 means unlimited
	minSplit    int
	minLeaf     int
	maxFeatures int // 0 means all features
	lambda      float64
	// thresholds restricts candidate split points per feature (histogram
	// boosting); nil means all midpoints between sorted values.
	thresholds [][]float64
}

type treeBuilder struct {
	X          [][]float64
	grad       []float64
	hess       []float64
	params     treeParams
	rng        *rand.Rand
	importance []float64 // accumulated split gain per feature, may be nil
}

func (b *treeBuilder) build(idx []int, depth int) *Node {
	sumG, sumH := 0.0, 0.0
	for _, i := range idx {
		sumG += b.grad[i]
		sumH += b.hess[i]
	}
	leaf := &Node{Leaf: true, Value: leafValue(sumG, sumH, b.params.lambda)}

	if len(idx) < b.params.minSplit {
		return leaf
	}
	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return leaf
	}

	feature, threshold, gain := b.bestSplit(idx, sumG, sumH)
	if feature < 0 {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.params.minLeaf || len(right) < b.params.minLeaf {
		return leaf
	}

	if b.importance != nil {
		b.importance[feature] += gain
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
		Value:     leaf.Value,
	}
}

// bestSplit scans candidate features for the split maximizing the gain
// GL²/(HL+λ) + GR²/(HR+λ) − G²/(H+λ). Returns feature -1 when no split
// improves on the parent.
func (b *treeBuilder) bestSplit(idx []int, sumG, sumH float64) (int, float64, float64) {
	numFeatures := len(b.X[0])
	candidates := b.candidateFeatures(numFeatures)

	parent := score(sumG, sumH, b.params.lambda)
	bestFeature, bestThreshold, bestGain := -1, 0.0, 1e-12

	for _, f := range candidates {
		threshold, gain, ok := b.scanFeature(idx, f, sumG, sumH, parent)
		if ok && gain > bestGain {
			bestFeature, bestThreshold, bestGain = f, threshold, gain
		}
	}
	if bestFeature < 0 {
		return -1, 0, 0
	}
	return bestFeature, bestThreshold, bestGain
}

func (b *treeBuilder) candidateFeatures(numFeatures int) []int {
	k := b.params.maxFeatures
	if k <= 0 || k >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	// Partial Fisher-Yates over the feature index set.
	perm := make([]int, numFeatures)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + b.rng.Intn(numFeatures-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	picked := perm[:k:k]
	sort.Ints(picked)
	return picked
}

func (b *treeBuilder) scanFeature(idx []int, f int, sumG, sumH, parent float64) (float64, float64, bool) {
	if b.params.thresholds != nil {
		return b.scanThresholds(idx, f, sumG, sumH, parent)
	}

	order := make([]int, len(idx))
	copy(order, idx)
	sort.Slice(order, func(a, c int) bool { return b.X[order[a]][f] < b.X[order[c]][f] })

	bestThreshold, bestGain, found := 0.0, 0.0, false
	gl, hl := 0.0, 0.0
	for pos := 0; pos < len(order)-1; pos++ {
		i := order[pos]
		gl += b.grad[i]
		hl += b.hess[i]

		cur, next := b.X[i][f], b.X[order[pos+1]][f]
		if cur == next {
			continue
		}
		if pos+1 < b.params.minLeaf || len(order)-pos-1 < b.params.minLeaf {
			continue
		}
		gain := score(gl, hl, b.params.lambda) + score(sumG-gl, sumH-hl, b.params.lambda) - parent
		if gain > bestGain {
			bestGain = gain
			bestThreshold = (cur + next) / 2
			found = true
		}
	}
	return bestThreshold, bestGain, found
}

// scanThresholds evaluates only the pre-binned candidate thresholds for the
// feature, a single pass per threshold set over the partition.
func (b *treeBuilder) scanThresholds(idx []int, f int, sumG, sumH, parent float64) (float64, float64, bool) {
	thresholds := b.params.thresholds[f]
	if len(thresholds) == 0 {
		return 0, 0, false
	}

	bestThreshold, bestGain, found := 0.0, 0.0, false
	for _, threshold := range thresholds {
		gl, hl := 0.0, 0.0
		nl := 0
		for _, i := range idx {
			if b.X[i][f] <= threshold {
				gl += b.grad[i]
				hl += b.hess[i]
				nl++
			}
		}
		if nl < b.params.minLeaf || len(idx)-nl < b.params.minLeaf {
			continue
		}
		gain := score(gl, hl, b.params.lambda) + score(sumG-gl, sumH-hl, b.params.lambda) - parent
		if gain > bestGain {
			bestGain = gain
			bestThreshold = threshold
			found = true
		}
	}
	return bestThreshold, bestGain, found
}

func score(g, h, lambda float64) float64 {
	if h+lambda <= 0 {
		return 0
	}
	return g * g / (h + lambda)
}

func leafValue(g, h, lambda float64) float64 {
	if h+lambda <= 0 {
		return 0
	}
	return -g / (h + lambda)
}

// histogramThresholds computes up to bins-1 quantile split candidates per
// feature from the training matrix.
func histogramThresholds(X [][]float64, bins int) [][]float64 {
	if len(X) == 0 {
		return nil
	}
	numFeatures := len(X[0])
	out := make([][]float64, numFeatures)
	for f := 0; f < numFeatures; f++ {
		values := make([]float64, 0, len(X))
		for _, row := range X {
			if !math.IsNaN(row[f]) {
				values = append(values, row[f])
			}
		}
		sort.Float64s(values)

		var thresholds []float64
		last := math.NaN()
		for b := 1; b < bins; b++ {
			pos := b * len(values) / bins
			if pos >= len(values) {
				break
			}
			v := values[pos]
			if v != last {
				thresholds = append(thresholds, v)
				last = v
			}
		}
		out[f] = thresholds
	}
	return out
}
