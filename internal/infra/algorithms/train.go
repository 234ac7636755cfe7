package algorithms

import (
	"fmt"

	"github.com/finshield/mlengine/internal/domain"
)

// Train dispatches to the trainer named by algo. seed feeds every
// stochastic trainer (tree threshold sampling, bootstrap, feature
// subsampling); logistic regression ignores it, being fully deterministic
// from its gradient descent alone.
func Train(algo domain.Algorithm, X domain.NumericMatrix, y domain.LabelVector, hyperparams map[string]float64, seed uint64, norm *domain.NormalizationContext) (domain.TrainedModel, error) {
	switch algo {
	case domain.AlgoLogReg:
		return TrainLogReg(X, y, hyperparams, norm)
	case domain.AlgoDecisionTree:
		return TrainDecisionTree(X, y, hyperparams, seed, norm)
	case domain.AlgoExtraTree:
		return TrainExtraTree(X, y, hyperparams, seed, norm)
	case domain.AlgoRandomForest:
		return TrainRandomForest(X, y, hyperparams, seed, norm)
	case domain.AlgoExtraTrees:
		return TrainExtraTrees(X, y, hyperparams, seed, norm)
	case domain.AlgoGBT:
		return TrainGBT(X, y, hyperparams, seed, norm)
	default:
		return nil, fmt.Errorf("train %s: %w", algo, domain.ErrUnknownAlgorithm)
	}
}
