// Package importance computes permutation feature importance: how much a
// model's PR-AUC degrades when one feature column is shuffled, holding
// everything else fixed.
package importance

import (
	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/metrics"
	"github.com/finshield/mlengine/internal/infra/rng"
)

// permutationSeed is fixed regardless of the caller's training seed so
// importance rankings are comparable across runs of the same candidate.
const permutationSeed = 42

const defaultRepeats = 3

// Permutation computes normalized permutation importance for every feature
// in X, against model's baseline PR-AUC on the unshuffled matrix. One LCG
// instance, seeded at 42, is threaded through every feature and repeat so
// the whole computation is reproducible end to end.
func Permutation(model domain.TrainedModel, X domain.NumericMatrix, y domain.LabelVector, nRepeats int) map[string]float64 {
	if nRepeats <= 0 {
		nRepeats = defaultRepeats
	}

	baseline := metrics.PRAUC(model.PredictBatch(X), []int(y))
	gen := rng.New(permutationSeed)

	raw := make([]float64, X.NFeatures())
	for f := 0; f < X.NFeatures(); f++ {
		var sumDrop float64
		for r := 0; r < nRepeats; r++ {
			shuffled := shuffleColumn(X, f, gen)
			prauc := metrics.PRAUC(model.PredictBatch(shuffled), []int(y))
			drop := baseline - prauc
			if drop < 0 {
				drop = 0
			}
			sumDrop += drop
		}
		raw[f] = sumDrop / float64(nRepeats)
	}

	return normalize(X.FeatureNames, raw)
}

func shuffleColumn(X domain.NumericMatrix, feature int, gen *rng.LCG) domain.NumericMatrix {
	perm := gen.Shuffle(X.NSamples())
	rows := make([][]float64, X.NSamples())
	for i, row := range X.Rows {
		newRow := make([]float64, len(row))
		copy(newRow, row)
		rows[i] = newRow
	}
	for i, src := range perm {
		rows[i][feature] = X.Rows[src][feature]
	}
	return domain.NumericMatrix{Rows: rows, FeatureNames: X.FeatureNames}
}

// normalize scales raw drops to sum to 1; an all-zero input yields a
// uniform distribution.
func normalize(names []string, raw []float64) map[string]float64 {
	var total float64
	for _, v := range raw {
		total += v
	}

	out := make(map[string]float64, len(names))
	if total == 0 {
		uniform := 1.0 / float64(len(names))
		for _, name := range names {
			out[name] = uniform
		}
		return out
	}
	for i, name := range names {
		out[name] = raw[i] / total
	}
	return out
}
