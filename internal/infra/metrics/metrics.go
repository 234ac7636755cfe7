// Package metrics scores a trained model's predictions against ground
// truth: PR-AUC, review-rate recall/precision, F1, a fold-stability
// estimate, and the fixed per-algorithm explainability constants the
// rubric weighs alongside them.
package metrics

import (
	"math"
	"sort"

	"github.com/finshield/mlengine/internal/domain"
)

// PRAUC computes the area under the precision-recall curve by walking
// scores in descending order, accumulating TP/FP, and integrating
// trapezoidally over the resulting (recall, precision) points. Returns 0
// when there are no positive labels.
func PRAUC(scores []float64, y []int) float64 {
	totalPositives := sumInts(y)
	if totalPositives == 0 {
		return 0
	}

	order := descendingOrder(scores)

	type point struct{ recall, precision float64 }
	points := make([]point, 0, len(order)+1)
	points = append(points, point{recall: 0, precision: 1})

	var tp, fp int
	for _, i := range order {
		if y[i] == 1 {
			tp++
		} else {
			fp++
		}
		recall := float64(tp) / float64(totalPositives)
		precision := float64(tp) / float64(tp+fp)
		points = append(points, point{recall, precision})
	}

	var area float64
	for i := 1; i < len(points); i++ {
		dr := points[i].recall - points[i-1].recall
		if dr <= 0 {
			continue
		}
		area += dr * (points[i].precision + points[i-1].precision) / 2
	}
	return clamp01(area)
}

// RecallAtReviewRate and PrecisionAtReviewRate flag the top
// max(1, round(reviewRate*n)) scores and measure against the full
// positive set.
func RecallAtReviewRate(scores []float64, y []int, reviewRate float64) float64 {
	flagged, totalPositives, _ := flagTop(scores, y, reviewRate)
	if totalPositives == 0 {
		return 0
	}
	return float64(flagged) / float64(totalPositives)
}

func PrecisionAtReviewRate(scores []float64, y []int, reviewRate float64) float64 {
	flagged, _, k := flagTop(scores, y, reviewRate)
	if k == 0 {
		return 0
	}
	return float64(flagged) / float64(k)
}

func flagTop(scores []float64, y []int, reviewRate float64) (flaggedPositives, totalPositives, k int) {
	n := len(scores)
	totalPositives = sumInts(y)
	k = int(math.Round(reviewRate * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	order := descendingOrder(scores)
	for _, i := range order[:k] {
		if y[i] == 1 {
			flaggedPositives++
		}
	}
	return flaggedPositives, totalPositives, k
}

// F1 is the harmonic mean of precision and recall, 0 when both are 0.
func F1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// Stability splits the sample sequence into 3 contiguous folds (the last
// absorbing any remainder), computes Recall@RR within each fold that
// contains at least one positive, and reports clamp(1-stddev, 0, 1) across
// qualifying folds. With fewer than 2 qualifying folds it reports 1.0.
func Stability(scores []float64, y []int, reviewRate float64) float64 {
	n := len(scores)
	if n == 0 {
		return 1.0
	}
	foldSize := n / 3
	bounds := [][2]int{
		{0, foldSize},
		{foldSize, 2 * foldSize},
		{2 * foldSize, n},
	}

	var recalls []float64
	for _, b := range bounds {
		lo, hi := b[0], b[1]
		if lo >= hi {
			continue
		}
		foldY := y[lo:hi]
		if sumInts(foldY) == 0 {
			continue
		}
		recalls = append(recalls, RecallAtReviewRate(scores[lo:hi], foldY, reviewRate))
	}

	if len(recalls) < 2 {
		return 1.0
	}
	return clamp01(1 - stddev(recalls))
}

// Explainability returns the fixed per-algorithm constant the rubric uses
// as a stand-in for how interpretable a champion's explanations will be.
func Explainability(algo domain.Algorithm) float64 {
	switch algo {
	case domain.AlgoLogReg, domain.AlgoDecisionTree:
		return 1.0
	case domain.AlgoGBT:
		return 0.9
	case domain.AlgoRandomForest, domain.AlgoExtraTrees:
		return 0.8
	default:
		return 0.5
	}
}

// Evaluate bundles all six metrics for one candidate.
func Evaluate(algo domain.Algorithm, scores []float64, y []int, reviewRate float64) domain.MetricsResult {
	recall := RecallAtReviewRate(scores, y, reviewRate)
	precision := PrecisionAtReviewRate(scores, y, reviewRate)
	return domain.MetricsResult{
		PRAUC:                 PRAUC(scores, y),
		RecallAtReviewRate:    recall,
		PrecisionAtReviewRate: precision,
		F1:                    F1(precision, recall),
		Stability:             Stability(scores, y, reviewRate),
		Explainability:        Explainability(algo),
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────

func sumInts(y []int) int {
	n := 0
	for _, v := range y {
		n += v
	}
	return n
}

// descendingOrder returns row indices sorted by score descending, breaking
// ties by original index so the ordering is deterministic.
func descendingOrder(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func stddev(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	m := sum / float64(len(v))
	var sq float64
	for _, x := range v {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(v)))
}
