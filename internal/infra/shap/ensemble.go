package shap

import "github.com/finshield/mlengine/internal/domain"

func projectLocal(global []float64, subset []int) []float64 {
	local := make([]float64, len(subset))
	for j, gi := range subset {
		local[j] = global[gi]
	}
	return local
}

// ExplainForest aggregates per-tree TreeSHAP over a bagged ensemble: each
// tree's local contributions are computed in its own feature subset, then
// remapped back to the global feature index and averaged across trees.
// Baseline is the average of per-tree baselines.
func ExplainForest(m *domain.ForestModel, x []float64) (baseline float64, contributions []float64) {
	contributions = make([]float64, len(m.Names))
	if len(m.Trees) == 0 {
		return 0, contributions
	}

	var baselineSum float64
	for i, tree := range m.Trees {
		subset := m.FeatureSubsets[i]
		localX := projectLocal(x, subset)
		localBaseline, localContrib := ExplainTree(tree, localX, len(subset))
		baselineSum += localBaseline
		for j, gi := range subset {
			contributions[gi] += localContrib[j]
		}
	}

	nTrees := float64(len(m.Trees))
	baseline = baselineSum / nTrees
	for i := range contributions {
		contributions[i] /= nTrees
	}
	return baseline, contributions
}

// ExplainGBT sums learningRate-scaled per-tree contributions across every
// boosting round; trees operate directly in the global feature space, so
// no remapping is needed. Baseline is the model's base log-odds.
func ExplainGBT(m *domain.GBTModel, x []float64) (baseline float64, contributions []float64) {
	contributions = make([]float64, len(m.Names))
	for _, tree := range m.Trees {
		_, localContrib := ExplainTree(tree, x, len(m.Names))
		for i, c := range localContrib {
			contributions[i] += m.LearningRate * c
		}
	}
	return m.BasePrediction, contributions
}
