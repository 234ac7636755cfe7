// Package artifact (de)serializes a TrainedModel to and from the
// language-neutral JSON document the engine persists and later reloads for
// scoring. encoding/json is used directly, matching how the rest of the
// ecosystem this engine is drawn from encodes structured documents — there
// is no dedicated serialization library in play anywhere upstream.
package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/finshield/mlengine/internal/domain"
)

type nodeDoc struct {
	Type         string   `json:"type"`
	Value        float64  `json:"value,omitempty"`
	FeatureIndex int      `json:"featureIndex,omitempty"`
	Threshold    float64  `json:"threshold,omitempty"`
	Left         *nodeDoc `json:"left,omitempty"`
	Right        *nodeDoc `json:"right,omitempty"`
}

type document struct {
	Algorithm    domain.Algorithm             `json:"algorithm"`
	FeatureNames []string                     `json:"featureNames"`
	NormContext  *domain.NormalizationContext `json:"normContext,omitempty"`

	// logistic regression
	Weights []float64 `json:"weights,omitempty"`
	Bias    float64   `json:"bias,omitempty"`

	// single tree (decision_tree, extra_tree)
	Tree *nodeDoc `json:"tree,omitempty"`

	// forest / extra trees
	Trees          []*nodeDoc `json:"trees,omitempty"`
	FeatureSubsets [][]int    `json:"featureSubsets,omitempty"`

	// gradient boosted trees (reuses Trees above)
	BasePrediction float64 `json:"basePrediction,omitempty"`
	LearningRate   float64 `json:"learningRate,omitempty"`
}

// Serialize encodes model into the tagged JSON document format, embedding
// the training-time normalization context under normContext.
func Serialize(model domain.TrainedModel) ([]byte, error) {
	doc := document{
		Algorithm:    model.Algorithm(),
		FeatureNames: model.FeatureNames(),
		NormContext:  model.NormContext(),
	}

	switch m := model.(type) {
	case *domain.LogRegModel:
		doc.Weights = m.Weights
		doc.Bias = m.Bias
	case *domain.TreeModel:
		doc.Tree = encodeNode(m.Root)
	case *domain.ForestModel:
		doc.Trees = make([]*nodeDoc, len(m.Trees))
		for i, tree := range m.Trees {
			doc.Trees[i] = encodeNode(tree)
		}
		doc.FeatureSubsets = m.FeatureSubsets
	case *domain.GBTModel:
		doc.Trees = make([]*nodeDoc, len(m.Trees))
		for i, tree := range m.Trees {
			doc.Trees[i] = encodeNode(tree)
		}
		doc.BasePrediction = m.BasePrediction
		doc.LearningRate = m.LearningRate
	default:
		return nil, fmt.Errorf("serialize: %w", domain.ErrUnknownAlgorithm)
	}

	return json.Marshal(doc)
}

// Deserialize reconstructs a TrainedModel from artifact bytes, dispatching
// on the algorithm tag. Unknown tags and structurally malformed documents
// both fail with a domain sentinel error.
func Deserialize(data []byte) (domain.TrainedModel, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("deserialize: %w", domain.ErrArtifactMalformed)
	}
	if doc.Algorithm == "" {
		return nil, fmt.Errorf("deserialize: %w", domain.ErrArtifactMissingKey)
	}
	if len(doc.FeatureNames) == 0 {
		return nil, fmt.Errorf("deserialize: missing featureNames: %w", domain.ErrArtifactMissingKey)
	}

	switch doc.Algorithm {
	case domain.AlgoLogReg:
		if doc.Weights == nil {
			return nil, fmt.Errorf("deserialize logistic: %w", domain.ErrArtifactMissingKey)
		}
		return &domain.LogRegModel{
			Weights: doc.Weights,
			Bias:    doc.Bias,
			Names:   doc.FeatureNames,
			Norm:    doc.NormContext,
		}, nil

	case domain.AlgoDecisionTree, domain.AlgoExtraTree:
		if doc.Tree == nil {
			return nil, fmt.Errorf("deserialize tree: %w", domain.ErrArtifactMissingKey)
		}
		root, err := decodeNode(doc.Tree)
		if err != nil {
			return nil, err
		}
		return &domain.TreeModel{
			Root:  root,
			Names: doc.FeatureNames,
			Norm:  doc.NormContext,
			Tag:   doc.Algorithm,
		}, nil

	case domain.AlgoRandomForest, domain.AlgoExtraTrees:
		if doc.Trees == nil || doc.FeatureSubsets == nil {
			return nil, fmt.Errorf("deserialize forest: %w", domain.ErrArtifactMissingKey)
		}
		trees := make([]*domain.Node, len(doc.Trees))
		for i, nd := range doc.Trees {
			root, err := decodeNode(nd)
			if err != nil {
				return nil, err
			}
			trees[i] = root
		}
		return &domain.ForestModel{
			Trees:          trees,
			FeatureSubsets: doc.FeatureSubsets,
			Names:          doc.FeatureNames,
			Norm:           doc.NormContext,
			Tag:            doc.Algorithm,
		}, nil

	case domain.AlgoGBT:
		if doc.Trees == nil {
			return nil, fmt.Errorf("deserialize gbt: %w", domain.ErrArtifactMissingKey)
		}
		trees := make([]*domain.Node, len(doc.Trees))
		for i, nd := range doc.Trees {
			root, err := decodeNode(nd)
			if err != nil {
				return nil, err
			}
			trees[i] = root
		}
		return &domain.GBTModel{
			BasePrediction: doc.BasePrediction,
			LearningRate:   doc.LearningRate,
			Trees:          trees,
			Names:          doc.FeatureNames,
			Norm:           doc.NormContext,
		}, nil

	default:
		return nil, fmt.Errorf("deserialize: tag %q: %w", doc.Algorithm, domain.ErrUnknownAlgorithm)
	}
}

func encodeNode(n *domain.Node) *nodeDoc {
	if n == nil {
		return nil
	}
	if n.Kind == domain.NodeLeaf {
		return &nodeDoc{Type: "leaf", Value: n.Value}
	}
	return &nodeDoc{
		Type:         "split",
		FeatureIndex: n.FeatureIndex,
		Threshold:    n.Threshold,
		Left:         encodeNode(n.Left),
		Right:        encodeNode(n.Right),
	}
}

func decodeNode(d *nodeDoc) (*domain.Node, error) {
	if d == nil {
		return nil, fmt.Errorf("deserialize node: %w", domain.ErrArtifactMalformed)
	}
	switch d.Type {
	case "leaf":
		return &domain.Node{Kind: domain.NodeLeaf, Value: d.Value}, nil
	case "split":
		left, err := decodeNode(d.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(d.Right)
		if err != nil {
			return nil, err
		}
		return &domain.Node{
			Kind:         domain.NodeSplit,
			FeatureIndex: d.FeatureIndex,
			Threshold:    d.Threshold,
			Left:         left,
			Right:        right,
		}, nil
	default:
		return nil, fmt.Errorf("deserialize node: type %q: %w", d.Type, domain.ErrArtifactMalformed)
	}
}
