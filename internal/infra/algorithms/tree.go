package algorithms

import (
	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/rng"
)

// TrainDecisionTree fits a single CART tree (Gini impurity). Hyperparameters:
// "maxDepth" (default 8), "minSamplesSplit" (default 5), "minSamplesLeaf"
// (default 2).
func TrainDecisionTree(X domain.NumericMatrix, y domain.LabelVector, hyperparams map[string]float64, seed uint64, norm *domain.NormalizationContext) (*domain.TreeModel, error) {
	if X.NSamples() == 0 || X.NFeatures() == 0 {
		return nil, domain.ErrTrainingFailure
	}
	p := treeParams{
		MaxDepth:        hpInt(hyperparams, "maxDepth", 8),
		MinSamplesSplit: hpInt(hyperparams, "minSamplesSplit", 5),
		MinSamplesLeaf:  hpInt(hyperparams, "minSamplesLeaf", 2),
	}
	gen := rng.New(seed)
	root := buildClassificationTree(X.Rows, []int(y), 0, p, gen)
	return &domain.TreeModel{
		Root:  root,
		Names: append([]string(nil), X.FeatureNames...),
		Norm:  norm,
		Tag:   domain.AlgoDecisionTree,
	}, nil
}

// TrainExtraTree fits a single extra-randomized tree: one random threshold
// per feature instead of the full CART candidate set. Same stopping
// hyperparameters as TrainDecisionTree.
func TrainExtraTree(X domain.NumericMatrix, y domain.LabelVector, hyperparams map[string]float64, seed uint64, norm *domain.NormalizationContext) (*domain.TreeModel, error) {
	if X.NSamples() == 0 || X.NFeatures() == 0 {
		return nil, domain.ErrTrainingFailure
	}
	p := treeParams{
		MaxDepth:        hpInt(hyperparams, "maxDepth", 8),
		MinSamplesSplit: hpInt(hyperparams, "minSamplesSplit", 5),
		MinSamplesLeaf:  hpInt(hyperparams, "minSamplesLeaf", 2),
		ExtraRandomized: true,
	}
	gen := rng.New(seed)
	root := buildClassificationTree(X.Rows, []int(y), 0, p, gen)
	return &domain.TreeModel{
		Root:  root,
		Names: append([]string(nil), X.FeatureNames...),
		Norm:  norm,
		Tag:   domain.AlgoExtraTree,
	}, nil
}
