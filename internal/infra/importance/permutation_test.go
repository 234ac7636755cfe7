package importance

import (
	"testing"

	"github.com/finshield/mlengine/internal/domain"
)

func TestPermutation_SumsToOne(t *testing.T) {
	model := &domain.LogRegModel{
		Weights: []float64{2, 0.001},
		Bias:    0,
		Names:   []string{"strong", "weak"},
	}
	X := domain.NumericMatrix{
		Rows: [][]float64{
			{1, 1}, {2, 0}, {3, 1}, {4, 0}, {5, 1}, {6, 0}, {-1, 1}, {-2, 0},
		},
		FeatureNames: []string{"strong", "weak"},
	}
	y := domain.LabelVector{1, 1, 1, 1, 1, 0, 0, 0}

	got := Permutation(model, X, y, 3)
	var total float64
	for _, v := range got {
		total += v
	}
	if diff := total - 1.0; diff < -1e-6 || diff > 1e-6 {
		t.Errorf("sum of importances = %f, want 1.0", total)
	}
	if len(got) != 2 {
		t.Fatalf("len(importances) = %d, want 2", len(got))
	}
}

func TestPermutation_UniformWhenModelIgnoresAllFeatures(t *testing.T) {
	model := &domain.LogRegModel{
		Weights: []float64{0, 0},
		Bias:    0,
		Names:   []string{"a", "b"},
	}
	X := domain.NumericMatrix{
		Rows:         [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}},
		FeatureNames: []string{"a", "b"},
	}
	y := domain.LabelVector{1, 0, 1, 0}

	got := Permutation(model, X, y, 2)
	want := 0.5
	for name, v := range got {
		if diff := v - want; diff < -1e-9 || diff > 1e-9 {
			t.Errorf("importance[%s] = %f, want %f (uniform)", name, v, want)
		}
	}
}

func TestPermutation_Deterministic(t *testing.T) {
	model := &domain.LogRegModel{Weights: []float64{1, -1}, Names: []string{"a", "b"}}
	X := domain.NumericMatrix{
		Rows:         [][]float64{{1, 2}, {3, 1}, {2, 3}, {4, 0}, {0, 4}, {5, 5}},
		FeatureNames: []string{"a", "b"},
	}
	y := domain.LabelVector{1, 0, 1, 0, 1, 0}

	g1 := Permutation(model, X, y, 3)
	g2 := Permutation(model, X, y, 3)
	for name := range g1 {
		if g1[name] != g2[name] {
			t.Errorf("importance[%s] differs between identical runs: %f vs %f", name, g1[name], g2[name])
		}
	}
}
