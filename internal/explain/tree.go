package explain

import (
	"math"

	"github.com/jonathan/credit-scorer/internal/model"
)

// treeSource abstracts the two single tree ensembles: a list of trees, a
// per-tree output scale, and the base margin.
type treeSource interface {
	trees() []*model.Node
	scale() float64
	base() float64
}

type forestSource struct{ f *model.RandomForest }

func (s forestSource) trees() []*model.Node { return s.f.Trees }
func (s forestSource) scale() float64       { return 1 / float64(len(s.f.Trees)) }
func (s forestSource) base() float64        { return 0 }

type boostingSource struct{ b *model.GradientBoosting }

func (s boostingSource) trees() []*model.Node { return s.b.Trees }
func (s boostingSource) scale() float64       { return s.b.LearningRate }
func (s boostingSource) base() float64        { return s.b.Base }

// TreeExplainer attributes a prediction by walking each tree's decision
// path: every split's change in subtree expectation is credited to the
// split feature. The baseline is the ensemble's expected value over its
// training sample (the scaled sum of root expectations), so attributions
// sum exactly to prediction minus baseline in the ensemble's margin space
// (probability for forests, log-odds for boosting).
type TreeExplainer struct {
	source   treeSource
	baseline float64
}

func newTreeExplainer(source treeSource, background [][]float64) (*TreeExplainer, error) {
	if len(background) == 0 {
		return nil, ErrNoBackground
	}
	baseline := source.base()
	for _, tree := range source.trees() {
		baseline += source.scale() * tree.Value
	}
	return &TreeExplainer{source: source, baseline: baseline}, nil
}

// Explain computes decision-path attributions for every row.
func (e *TreeExplainer) Explain(X [][]float64) (*Explanation, error) {
	if len(X) == 0 {
		return &Explanation{Baseline: e.baseline}, nil
	}
	numFeatures := len(X[0])
	values := make([][]float64, len(X))
	for i, row := range X {
		attribution := make([]float64, numFeatures)
		for _, tree := range e.source.trees() {
			walkPath(tree, row, e.source.scale(), attribution)
		}
		values[i] = attribution
	}
	return &Explanation{Baseline: e.baseline, Values: values}, nil
}

// walkPath credits each split on the row's path with the change in node
// expectation, scaled by the tree's contribution weight.
func walkPath(node *model.Node, row []float64, scale float64, attribution []float64) {
	for !node.Leaf {
		var next *model.Node
		v := row[node.Feature]
		if math.IsNaN(v) || v <= node.Threshold {
			next = node.Left
		} else {
			next = node.Right
		}
		attribution[node.Feature] += scale * (next.Value - node.Value)
		node = next
	}
}
