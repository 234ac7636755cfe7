// Package shap implements the engine's explainability layer: exact linear
// SHAP for logistic regression and a path-based TreeSHAP approximation for
// tree-based models, aggregated across ensembles and summarized globally.
package shap

import (
	"fmt"

	"github.com/finshield/mlengine/internal/domain"
)

// ExplainLinear computes exact Linear SHAP for a logistic regression
// model's raw logit (pre-sigmoid) score. baseline + sum(contributions)
// equals bias + w.x exactly.
func ExplainLinear(m *domain.LogRegModel, x []float64, featureMeans []float64) (baseline float64, contributions []float64) {
	baseline = m.Bias
	contributions = make([]float64, len(m.Weights))
	for i, w := range m.Weights {
		baseline += w * featureMeans[i]
		contributions[i] = w * (x[i] - featureMeans[i])
	}
	return baseline, contributions
}

// Explain dispatches to the model-specific SHAP implementation.
// featureMeans must align with the model's own feature ordering; only the
// logistic path consumes it.
func Explain(model domain.TrainedModel, x []float64, featureMeans []float64) (baseline float64, contributions []float64, err error) {
	switch m := model.(type) {
	case *domain.LogRegModel:
		b, c := ExplainLinear(m, x, featureMeans)
		return b, c, nil
	case *domain.TreeModel:
		b, c := ExplainTree(m.Root, x, len(m.Names))
		return b, c, nil
	case *domain.ForestModel:
		b, c := ExplainForest(m, x)
		return b, c, nil
	case *domain.GBTModel:
		b, c := ExplainGBT(m, x)
		return b, c, nil
	default:
		return 0, nil, fmt.Errorf("shap explain: %w", domain.ErrUnknownAlgorithm)
	}
}
