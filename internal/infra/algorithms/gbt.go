package algorithms

import (
	"math"

	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/rng"
)

// gbtMinSamplesSplit is left low relative to the CART default: depth
// already caps tree size at 3, so the constraint that matters is
// minSamplesLeaf, not an additional split-size floor.
const gbtMinSamplesSplit = 2

// TrainGBT fits a sequence of depth-3 regression trees against the
// log-loss residual of the running prediction. Hyperparameters:
// "nEstimators" (default 50), "learningRate" (default 0.1). Base
// prediction is the log-odds of the training base rate, clamped to
// [1e-7, 1-1e-7] before the log.
func TrainGBT(X domain.NumericMatrix, y domain.LabelVector, hyperparams map[string]float64, seed uint64, norm *domain.NormalizationContext) (*domain.GBTModel, error) {
	n := X.NSamples()
	d := X.NFeatures()
	if n == 0 || d == 0 {
		return nil, domain.ErrTrainingFailure
	}

	nEstimators := hpInt(hyperparams, "nEstimators", 50)
	learningRate := hp(hyperparams, "learningRate", 0.1)

	baseRate := positiveFraction([]int(y))
	clamped := math.Max(1e-7, math.Min(1-1e-7, baseRate))
	basePrediction := math.Log(clamped / (1 - clamped))

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = basePrediction
	}

	p := treeParams{MaxDepth: 3, MinSamplesSplit: gbtMinSamplesSplit, MinSamplesLeaf: 2}
	gen := rng.New(seed)

	trees := make([]*domain.Node, nEstimators)
	for round := 0; round < nEstimators; round++ {
		residual := make([]float64, n)
		for i := range residual {
			prob := domain.Sigmoid(raw[i])
			residual[i] = float64(y[i]) - prob
		}

		tree := buildRegressionTree(X.Rows, residual, 0, p, gen)
		trees[round] = tree

		for i, row := range X.Rows {
			raw[i] += learningRate * tree.Predict(row)
		}
	}

	return &domain.GBTModel{
		BasePrediction: basePrediction,
		LearningRate:   learningRate,
		Trees:          trees,
		Names:          append([]string(nil), X.FeatureNames...),
		Norm:           norm,
	}, nil
}
