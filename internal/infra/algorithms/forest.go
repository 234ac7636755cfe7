package algorithms

import (
	"math"

	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/rng"
)

// TrainRandomForest fits a bagged ensemble of CART trees, each trained on a
// bootstrap sample of rows and a random subset of features. Hyperparameters:
// "nEstimators" (default 20), "maxDepth" (default 10), "minSamplesSplit"
// (default 5), "minSamplesLeaf" (default 2). Tree i is seeded with
// seed+i+1.
func TrainRandomForest(X domain.NumericMatrix, y domain.LabelVector, hyperparams map[string]float64, seed uint64, norm *domain.NormalizationContext) (*domain.ForestModel, error) {
	return trainForest(X, y, hyperparams, seed, norm, false, domain.AlgoRandomForest)
}

// TrainExtraTrees fits an ensemble identical to TrainRandomForest except
// every tree is grown with the random-threshold rule.
func TrainExtraTrees(X domain.NumericMatrix, y domain.LabelVector, hyperparams map[string]float64, seed uint64, norm *domain.NormalizationContext) (*domain.ForestModel, error) {
	return trainForest(X, y, hyperparams, seed, norm, true, domain.AlgoExtraTrees)
}

func trainForest(X domain.NumericMatrix, y domain.LabelVector, hyperparams map[string]float64, seed uint64, norm *domain.NormalizationContext, extraRandomized bool, tag domain.Algorithm) (*domain.ForestModel, error) {
	n := X.NSamples()
	d := X.NFeatures()
	if n == 0 || d == 0 {
		return nil, domain.ErrTrainingFailure
	}

	nEstimators := hpInt(hyperparams, "nEstimators", 20)
	p := treeParams{
		MaxDepth:        hpInt(hyperparams, "maxDepth", 10),
		MinSamplesSplit: hpInt(hyperparams, "minSamplesSplit", 5),
		MinSamplesLeaf:  hpInt(hyperparams, "minSamplesLeaf", 2),
		ExtraRandomized: extraRandomized,
	}
	subsetSize := int(math.Round(math.Sqrt(float64(d))))
	if subsetSize < 1 {
		subsetSize = 1
	}

	trees := make([]*domain.Node, nEstimators)
	subsets := make([][]int, nEstimators)

	for t := 0; t < nEstimators; t++ {
		gen := rng.New(seed + uint64(t) + 1)

		rowIdx := gen.SampleWithReplacement(n)
		featureIdx := gen.SampleWithoutReplacement(d, subsetSize)

		localX := make([][]float64, n)
		for i, r := range rowIdx {
			row := make([]float64, subsetSize)
			for j, f := range featureIdx {
				row[j] = X.Rows[r][f]
			}
			localX[i] = row
		}
		localY := make([]int, n)
		for i, r := range rowIdx {
			localY[i] = y[r]
		}

		trees[t] = buildClassificationTree(localX, localY, 0, p, gen)
		subsets[t] = featureIdx
	}

	return &domain.ForestModel{
		Trees:          trees,
		FeatureSubsets: subsets,
		Names:          append([]string(nil), X.FeatureNames...),
		Norm:           norm,
		Tag:            tag,
	}, nil
}
