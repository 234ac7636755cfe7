// Package algorithms implements the five trainers the bake-off runs:
// logistic regression, CART decision trees, extra-randomized trees, bagged
// random forests, extra-trees ensembles, and gradient-boosted trees. Every
// trainer is deterministic given its data, hyperparameters, and seed.
package algorithms

import (
	"math"
	"sort"

	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/rng"
)

const maxThresholdCandidates = 20

// treeParams controls recursive tree growth shared by CART, extra trees,
// and the GBT residual-fitting trees.
type treeParams struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	ExtraRandomized bool // one random threshold per feature instead of the full candidate set
}

func hp(m map[string]float64, key string, def float64) float64 {
	if m == nil {
		return def
	}
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func hpInt(m map[string]float64, key string, def int) int {
	return int(hp(m, key, float64(def)))
}

// column extracts feature f from every row.
func column(X [][]float64, f int) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = row[f]
	}
	return out
}

func uniqueSorted(values []float64) []float64 {
	seen := make(map[float64]bool, len(values))
	uniq := make([]float64, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			uniq = append(uniq, v)
		}
	}
	sort.Float64s(uniq)
	return uniq
}

// candidateThresholds returns the split points to try for one feature.
// Under the CART rule it returns midpoints between consecutive sorted
// unique values, capped at 20 (20 random midpoints when more than 21
// unique values exist). Under the extra-randomized rule it returns a
// single threshold drawn uniformly between the observed min and max, or
// nil when the feature has zero variance.
func candidateThresholds(values []float64, gen *rng.LCG, extraRandomized bool) []float64 {
	uniq := uniqueSorted(values)
	if len(uniq) < 2 {
		return nil
	}
	if extraRandomized {
		return []float64{gen.Range(uniq[0], uniq[len(uniq)-1])}
	}
	midpoints := make([]float64, len(uniq)-1)
	for i := 0; i < len(uniq)-1; i++ {
		midpoints[i] = (uniq[i] + uniq[i+1]) / 2
	}
	if len(uniq) <= maxThresholdCandidates+1 {
		return midpoints
	}
	idx := gen.SampleWithoutReplacement(len(midpoints), maxThresholdCandidates)
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = midpoints[j]
	}
	return out
}

// splitIndices partitions row indices by whether x[feature] <= threshold.
func splitIndices(X [][]float64, feature int, threshold float64) (left, right []int) {
	for i, row := range X {
		if row[feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func subsetRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

func subsetLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func subsetFloats(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func allSameLabel(y []int) bool {
	for i := 1; i < len(y); i++ {
		if y[i] != y[0] {
			return false
		}
	}
	return true
}

func positiveFraction(y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	n := 0
	for _, v := range y {
		if v == 1 {
			n++
		}
	}
	return float64(n) / float64(len(y))
}

// weightedGini is the sample-size-weighted Gini impurity of a two-way split.
func weightedGini(left, right []int) float64 {
	total := float64(len(left) + len(right))
	if total == 0 {
		return 0
	}
	return (float64(len(left))*giniImpurity(left) + float64(len(right))*giniImpurity(right)) / total
}

func giniImpurity(y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	p := positiveFraction(y)
	return 1 - p*p - (1-p)*(1-p)
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// weightedMSE is the sample-size-weighted mean squared error of a two-way
// split against each side's own mean.
func weightedMSE(left, right []float64) float64 {
	total := float64(len(left) + len(right))
	if total == 0 {
		return 0
	}
	return (float64(len(left))*mse(left) + float64(len(right))*mse(right)) / total
}

func mse(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := mean(v)
	var sum float64
	for _, x := range v {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(v))
}

// buildClassificationTree grows a Gini-impurity tree. Under the
// extra-randomized rule each feature contributes exactly one random
// threshold; otherwise the CART candidate-threshold rule applies. Ties on
// weighted Gini keep the first feature/threshold seen.
func buildClassificationTree(X [][]float64, y []int, depth int, p treeParams, gen *rng.LCG) *domain.Node {
	if depth >= p.MaxDepth || len(y) < p.MinSamplesSplit || allSameLabel(y) {
		return &domain.Node{Kind: domain.NodeLeaf, Value: positiveFraction(y)}
	}

	bestGini := math.Inf(1)
	bestFeature := -1
	var bestThreshold float64
	nFeatures := len(X[0])
	for f := 0; f < nFeatures; f++ {
		thresholds := candidateThresholds(column(X, f), gen, p.ExtraRandomized)
		for _, th := range thresholds {
			left, right := splitIndices(X, f, th)
			if len(left) < p.MinSamplesLeaf || len(right) < p.MinSamplesLeaf {
				continue
			}
			g := weightedGini(subsetLabels(y, left), subsetLabels(y, right))
			if g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = th
			}
		}
	}

	if bestFeature == -1 {
		return &domain.Node{Kind: domain.NodeLeaf, Value: positiveFraction(y)}
	}

	leftIdx, rightIdx := splitIndices(X, bestFeature, bestThreshold)
	left := buildClassificationTree(subsetRows(X, leftIdx), subsetLabels(y, leftIdx), depth+1, p, gen)
	right := buildClassificationTree(subsetRows(X, rightIdx), subsetLabels(y, rightIdx), depth+1, p, gen)
	return &domain.Node{Kind: domain.NodeSplit, FeatureIndex: bestFeature, Threshold: bestThreshold, Left: left, Right: right}
}

// buildRegressionTree grows a weighted-MSE tree over a continuous target
// (GBT residuals). Leaf value is the mean target in that leaf.
func buildRegressionTree(X [][]float64, target []float64, depth int, p treeParams, gen *rng.LCG) *domain.Node {
	if depth >= p.MaxDepth || len(target) < p.MinSamplesSplit {
		return &domain.Node{Kind: domain.NodeLeaf, Value: mean(target)}
	}

	bestMSE := math.Inf(1)
	bestFeature := -1
	var bestThreshold float64
	nFeatures := len(X[0])
	for f := 0; f < nFeatures; f++ {
		thresholds := candidateThresholds(column(X, f), gen, p.ExtraRandomized)
		for _, th := range thresholds {
			left, right := splitIndices(X, f, th)
			if len(left) < p.MinSamplesLeaf || len(right) < p.MinSamplesLeaf {
				continue
			}
			e := weightedMSE(subsetFloats(target, left), subsetFloats(target, right))
			if e < bestMSE {
				bestMSE = e
				bestFeature = f
				bestThreshold = th
			}
		}
	}

	if bestFeature == -1 {
		return &domain.Node{Kind: domain.NodeLeaf, Value: mean(target)}
	}

	leftIdx, rightIdx := splitIndices(X, bestFeature, bestThreshold)
	left := buildRegressionTree(subsetRows(X, leftIdx), subsetFloats(target, leftIdx), depth+1, p, gen)
	right := buildRegressionTree(subsetRows(X, rightIdx), subsetFloats(target, rightIdx), depth+1, p, gen)
	return &domain.Node{Kind: domain.NodeSplit, FeatureIndex: bestFeature, Threshold: bestThreshold, Left: left, Right: right}
}
