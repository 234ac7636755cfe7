package artifact

import (
	"math"
	"testing"

	"github.com/finshield/mlengine/internal/domain"
)

func sampleNorm() *domain.NormalizationContext {
	n := domain.NewNormalizationContext()
	n.NumericStats["amount"] = domain.ColumnStats{Mean: 10, Std: 2}
	n.CategoricalMappings["channel"] = []string{"wire", "ach"}
	return n
}

func samplePoints() [][]float64 {
	return [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 2}, {-1, -1}}
}

func assertRoundTrip(t *testing.T, model domain.TrainedModel) {
	t.Helper()
	data, err := Serialize(model)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	restored, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if restored.Algorithm() != model.Algorithm() {
		t.Errorf("Algorithm() = %s, want %s", restored.Algorithm(), model.Algorithm())
	}
	for _, x := range samplePoints() {
		got := restored.Predict(x)
		want := model.Predict(x)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("Predict(%v) = %f, want %f", x, got, want)
		}
	}
}

func TestRoundTrip_LogReg(t *testing.T) {
	m := &domain.LogRegModel{
		Weights: []float64{0.5, -0.25},
		Bias:    0.1,
		Names:   []string{"a", "b"},
		Norm:    sampleNorm(),
	}
	assertRoundTrip(t, m)
}

func TestRoundTrip_DecisionTree(t *testing.T) {
	m := &domain.TreeModel{
		Root: &domain.Node{
			Kind: domain.NodeSplit, FeatureIndex: 0, Threshold: 0.5,
			Left:  &domain.Node{Kind: domain.NodeLeaf, Value: 0.1},
			Right: &domain.Node{Kind: domain.NodeLeaf, Value: 0.9},
		},
		Names: []string{"a", "b"},
		Norm:  sampleNorm(),
		Tag:   domain.AlgoDecisionTree,
	}
	assertRoundTrip(t, m)
}

func TestRoundTrip_ExtraTreeTagPreserved(t *testing.T) {
	m := &domain.TreeModel{
		Root:  &domain.Node{Kind: domain.NodeLeaf, Value: 0.42},
		Names: []string{"a", "b"},
		Tag:   domain.AlgoExtraTree,
	}
	data, err := Serialize(m)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	restored, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if restored.Algorithm() != domain.AlgoExtraTree {
		t.Errorf("Algorithm() = %s, want %s", restored.Algorithm(), domain.AlgoExtraTree)
	}
}

func TestRoundTrip_Forest(t *testing.T) {
	m := &domain.ForestModel{
		Trees: []*domain.Node{
			{Kind: domain.NodeLeaf, Value: 0.3},
			{Kind: domain.NodeSplit, FeatureIndex: 0, Threshold: 1, Left: &domain.Node{Kind: domain.NodeLeaf, Value: 0.2}, Right: &domain.Node{Kind: domain.NodeLeaf, Value: 0.8}},
		},
		FeatureSubsets: [][]int{{1}, {0}},
		Names:          []string{"a", "b"},
		Norm:           sampleNorm(),
		Tag:            domain.AlgoRandomForest,
	}
	assertRoundTrip(t, m)
}

func TestRoundTrip_GBT(t *testing.T) {
	m := &domain.GBTModel{
		BasePrediction: -0.2,
		LearningRate:   0.1,
		Trees: []*domain.Node{
			{Kind: domain.NodeLeaf, Value: 0.3},
			{Kind: domain.NodeSplit, FeatureIndex: 1, Threshold: 0, Left: &domain.Node{Kind: domain.NodeLeaf, Value: -0.1}, Right: &domain.Node{Kind: domain.NodeLeaf, Value: 0.4}},
		},
		Names: []string{"a", "b"},
		Norm:  sampleNorm(),
	}
	assertRoundTrip(t, m)
}

func TestDeserialize_UnknownTagFails(t *testing.T) {
	_, err := Deserialize([]byte(`{"algorithm":"not_real","featureNames":["a"]}`))
	if err == nil {
		t.Error("expected error for unknown algorithm tag")
	}
}

func TestDeserialize_MissingFeatureNamesFails(t *testing.T) {
	_, err := Deserialize([]byte(`{"algorithm":"log_reg","weights":[1],"bias":0}`))
	if err == nil {
		t.Error("expected error for missing featureNames")
	}
}

func TestDeserialize_MalformedJSONFails(t *testing.T) {
	_, err := Deserialize([]byte(`not json`))
	if err == nil {
		t.Error("expected error for malformed JSON")
	}
}
