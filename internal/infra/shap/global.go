package shap

import (
	"math"
	"sort"

	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/rng"
)

// DefaultGlobalSampleSize is the default cap on rows sampled for a global
// SHAP summary.
const DefaultGlobalSampleSize = 10000

// globalSeed is fixed so repeated summaries over the same matrix sample
// the same rows; the contract does not expose a caller seed for this step.
const globalSeed = 1

// Global samples up to sampleSize rows (all rows if the matrix is smaller),
// computes per-row absolute SHAP contributions, and averages them per
// feature. Rows that fail to explain (unsupported model variant) are
// skipped rather than aborting the summary.
func Global(model domain.TrainedModel, X domain.NumericMatrix, featureMeans []float64, sampleSize int) (map[string]float64, []domain.FeatureImportance) {
	if sampleSize <= 0 {
		sampleSize = DefaultGlobalSampleSize
	}
	n := X.NSamples()

	var idx []int
	if n <= sampleSize {
		idx = make([]int, n)
		for i := range idx {
			idx[i] = i
		}
	} else {
		idx = rng.New(globalSeed).SampleWithoutReplacement(n, sampleSize)
	}

	sums := make([]float64, X.NFeatures())
	counted := 0
	for _, i := range idx {
		_, contrib, err := Explain(model, X.Rows[i], featureMeans)
		if err != nil {
			continue
		}
		for j, c := range contrib {
			sums[j] += math.Abs(c)
		}
		counted++
	}

	means := make(map[string]float64, len(sums))
	list := make([]domain.FeatureImportance, len(sums))
	for j, name := range X.FeatureNames {
		v := 0.0
		if counted > 0 {
			v = sums[j] / float64(counted)
		}
		means[name] = v
		list[j] = domain.FeatureImportance{Feature: name, Value: v}
	}
	sort.Slice(list, func(a, b int) bool { return list[a].Value > list[b].Value })

	return means, list
}
