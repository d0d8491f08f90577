package model

import "sort"

// Metrics is the held-out validation summary computed after training.
type Metrics struct {
	Accuracy         float64 `json:"accuracy"`
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	F1               float64 `json:"f1"`
	ROCAUC           float64 `json:"roc_auc"`
	AveragePrecision float64 `json:"average_precision"`
}

// Evaluate computes classification metrics from true labels and predicted
// positive-class probabilities, thresholding at 0.5 for the label metrics.
func Evaluate(y []int, proba []float64) Metrics {
	var tp, fp, tn, fn float64
	for i, label := range y {
		predicted := 0
		if proba[i] >= 0.5 {
			predicted = 1
		}
		switch {
		case predicted == 1 && label == 1:
			tp++
		case predicted == 1 && label == 0:
			fp++
		case predicted == 0 && label == 0:
			tn++
		default:
			fn++
		}
	}

	m := Metrics{}
	if total := tp + fp + tn + fn; total > 0 {
		m.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	m.ROCAUC = ROCAUC(y, proba)
	m.AveragePrecision = AveragePrecision(y, proba)
	return m
}

// ROCAUC computes the area under the ROC curve via the rank-sum statistic,
// averaging ranks across tied scores. Returns 0.5 when either class is
// absent.
func ROCAUC(y []int, proba []float64) float64 {
	n := len(y)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return proba[order[a]] < proba[order[b]] })

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start
		for end < n && proba[order[end]] == proba[order[start]] {
			end++
		}
		// 1-based average rank over the tie group.
		avg := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			ranks[order[k]] = avg
		}
		start = end
	}

	var positives, rankSum float64
	for i, label := range y {
		if label == 1 {
			positives++
			rankSum += ranks[i]
		}
	}
	negatives := float64(n) - positives
	if positives == 0 || negatives == 0 {
		return 0.5
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives)
}

// AveragePrecision computes the area under the precision-recall curve as
// the weighted mean of precisions at each recall step.
func AveragePrecision(y []int, proba []float64) float64 {
	n := len(y)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return proba[order[a]] > proba[order[b]] })

	var positives float64
	for _, label := range y {
		if label == 1 {
			positives++
		}
	}
	if positives == 0 {
		return 0
	}

	var tp, fp, ap, prevRecall float64
	for _, i := range order {
		if y[i] == 1 {
			tp++
		} else {
			fp++
		}
		recall := tp / positives
		precision := tp / (tp + fp)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
	}
	return ap
}
