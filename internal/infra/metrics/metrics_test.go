package metrics

import (
	"math"
	"testing"

	"github.com/finshield/mlengine/internal/domain"
)

func TestPRAUC_ZeroPositivesIsZero(t *testing.T) {
	got := PRAUC([]float64{0.9, 0.1, 0.5}, []int{0, 0, 0})
	if got != 0 {
		t.Errorf("PRAUC() = %f, want 0", got)
	}
}

func TestPRAUC_PerfectSeparationIsOne(t *testing.T) {
	scores := []float64{0.9, 0.8, 0.2, 0.1}
	y := []int{1, 1, 0, 0}
	got := PRAUC(scores, y)
	if diff := got - 1.0; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("PRAUC(perfect separation) = %f, want 1.0", got)
	}
}

func TestPRAUC_InBounds(t *testing.T) {
	scores := []float64{0.9, 0.1, 0.4, 0.6, 0.3}
	y := []int{1, 0, 1, 0, 1}
	got := PRAUC(scores, y)
	if got < 0 || got > 1 {
		t.Errorf("PRAUC() = %f, out of [0,1]", got)
	}
}

func TestRecallAtReviewRate_Monotonic(t *testing.T) {
	scores := []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1, 0.05}
	y := []int{1, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	prev := -1.0
	for _, rr := range []float64{0.1, 0.3, 0.5, 0.7, 1.0} {
		r := RecallAtReviewRate(scores, y, rr)
		if r < prev-1e-9 {
			t.Errorf("Recall@RR not monotonic: rr=%f recall=%f < prev=%f", rr, r, prev)
		}
		prev = r
	}
}

func TestPrecisionAtReviewRate_TopOneCorrect(t *testing.T) {
	scores := []float64{0.9, 0.1}
	y := []int{1, 0}
	got := PrecisionAtReviewRate(scores, y, 0.5)
	if got != 1.0 {
		t.Errorf("PrecisionAtReviewRate() = %f, want 1.0", got)
	}
}

func TestF1_ZeroWhenBothZero(t *testing.T) {
	if got := F1(0, 0); got != 0 {
		t.Errorf("F1(0,0) = %f, want 0", got)
	}
}

func TestF1_HarmonicMean(t *testing.T) {
	got := F1(0.5, 0.5)
	if diff := got - 0.5; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("F1(0.5,0.5) = %f, want 0.5", got)
	}
}

func TestStability_FewerThanTwoQualifyingFoldsIsOne(t *testing.T) {
	scores := []float64{0.9, 0.1, 0.2, 0.3, 0.4, 0.5}
	y := []int{1, 0, 0, 0, 0, 0}
	got := Stability(scores, y, 0.5)
	if got != 1.0 {
		t.Errorf("Stability() = %f, want 1.0 (only one fold has a positive)", got)
	}
}

func TestStability_InBounds(t *testing.T) {
	scores := []float64{0.9, 0.1, 0.8, 0.2, 0.7, 0.3, 0.85, 0.15, 0.75}
	y := []int{1, 0, 1, 0, 1, 0, 1, 0, 1}
	got := Stability(scores, y, 0.3)
	if got < 0 || got > 1 {
		t.Errorf("Stability() = %f, out of [0,1]", got)
	}
}

func TestExplainability_FixedConstants(t *testing.T) {
	tests := []struct {
		algo domain.Algorithm
		want float64
	}{
		{domain.AlgoLogReg, 1.0},
		{domain.AlgoDecisionTree, 1.0},
		{domain.AlgoRandomForest, 0.8},
		{domain.AlgoExtraTrees, 0.8},
		{domain.AlgoGBT, 0.9},
		{domain.Algorithm("unknown"), 0.5},
	}
	for _, tt := range tests {
		if got := Explainability(tt.algo); got != tt.want {
			t.Errorf("Explainability(%s) = %f, want %f", tt.algo, got, tt.want)
		}
	}
}

func TestEvaluate_AllMetricsInBounds(t *testing.T) {
	scores := []float64{0.9, 0.1, 0.8, 0.2, 0.7, 0.3}
	y := []int{1, 0, 1, 0, 0, 1}
	m := Evaluate(domain.AlgoLogReg, scores, y, 0.5)
	for name, v := range map[string]float64{
		"PRAUC": m.PRAUC, "Recall": m.RecallAtReviewRate, "Precision": m.PrecisionAtReviewRate,
		"F1": m.F1, "Stability": m.Stability, "Explainability": m.Explainability,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Errorf("%s = %f, out of [0,1] or NaN", name, v)
		}
	}
}
