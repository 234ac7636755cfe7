package algorithms

import "github.com/finshield/mlengine/internal/domain"

// TrainLogReg fits an L2-regularized logistic regression by full-batch
// gradient descent. Weights start at zero; the bias term is never
// regularized. Hyperparameters: "epochs" (default 200), "learningRate"
// (default 0.01), "c" (inverse regularization strength, default 1.0 ->
// lambda = 1/c).
func TrainLogReg(X domain.NumericMatrix, y domain.LabelVector, hyperparams map[string]float64, norm *domain.NormalizationContext) (*domain.LogRegModel, error) {
	n := X.NSamples()
	d := X.NFeatures()
	if n == 0 || d == 0 {
		return nil, domain.ErrTrainingFailure
	}

	epochs := hpInt(hyperparams, "epochs", 200)
	lr := hp(hyperparams, "learningRate", 0.01)
	c := hp(hyperparams, "c", 1.0)
	lambda := 0.0
	if c != 0 {
		lambda = 1.0 / c
	}

	weights := make([]float64, d)
	bias := 0.0

	for e := 0; e < epochs; e++ {
		gradW := make([]float64, d)
		var gradB float64
		for i, row := range X.Rows {
			z := bias
			for j, w := range weights {
				z += w * row[j]
			}
			p := domain.Sigmoid(z)
			residual := p - float64(y[i])
			for j, x := range row {
				gradW[j] += residual * x
			}
			gradB += residual
		}
		for j := range weights {
			gradW[j] = gradW[j]/float64(n) + lambda*weights[j]
			weights[j] -= lr * gradW[j]
		}
		bias -= lr * (gradB / float64(n))
	}

	return &domain.LogRegModel{
		Weights: weights,
		Bias:    bias,
		Names:   append([]string(nil), X.FeatureNames...),
		Norm:    norm,
	}, nil
}
