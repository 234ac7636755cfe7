package scoring

import (
	"strconv"
	"strings"
	"testing"

	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/artifact"
	"github.com/finshield/mlengine/internal/infra/features"
)

func TestDetectLabelColumn_ExactMatch(t *testing.T) {
	name, ok := DetectLabelColumn([]string{"amount", "IsAnomaly", "channel"})
	if !ok || name != "IsAnomaly" {
		t.Errorf("DetectLabelColumn() = (%q, %v), want (IsAnomaly, true)", name, ok)
	}
}

func TestDetectLabelColumn_FallbackPattern(t *testing.T) {
	name, ok := DetectLabelColumn([]string{"amount", "fraud_flag"})
	if !ok || name != "fraud_flag" {
		t.Errorf("DetectLabelColumn() = (%q, %v), want (fraud_flag, true)", name, ok)
	}
}

func TestDetectLabelColumn_NoMatch(t *testing.T) {
	_, ok := DetectLabelColumn([]string{"amount", "channel"})
	if ok {
		t.Error("expected no label column detected")
	}
}

func TestAlign_PassthroughWhenNamesMatch(t *testing.T) {
	mat := domain.NumericMatrix{Rows: [][]float64{{1, 2}}, FeatureNames: []string{"a", "b"}}
	got := Align(mat, []string{"a", "b"})
	if &got.Rows[0][0] != &mat.Rows[0][0] {
		t.Error("expected passthrough (same underlying row) when names match")
	}
}

func TestAlign_ProjectsByNameWithZeroFillForMissing(t *testing.T) {
	mat := domain.NumericMatrix{
		Rows:         [][]float64{{10, 20, 30}},
		FeatureNames: []string{"b", "c", "d"},
	}
	got := Align(mat, []string{"a", "b", "c"})
	if len(got.Rows[0]) != 3 {
		t.Fatalf("len(row) = %d, want 3", len(got.Rows[0]))
	}
	want := []float64{0, 10, 20} // a missing -> 0, b->10, c->20, d dropped
	for i, w := range want {
		if got.Rows[0][i] != w {
			t.Errorf("row[%d] = %f, want %f", i, got.Rows[0][i], w)
		}
	}
}

func TestRun_ThresholdContractWithinOne(t *testing.T) {
	rows := make([]map[string]string, 1000)
	for i := range rows {
		// Distinct amounts in [0, 1) give 1000 distinct, untied scores.
		rows[i] = map[string]string{"amount": strconv.FormatFloat(float64(i)/1000, 'f', 3, 64)}
	}
	schema := features.Schema{"amount": features.ColNumber}
	model := &domain.LogRegModel{Weights: []float64{1}, Bias: 0, Names: []string{"amount"}, Norm: domain.NewNormalizationContext()}
	model.Norm.NumericStats["amount"] = domain.ColumnStats{Mean: 5, Std: 2}
	data, err := artifact.Serialize(model)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	result, err := Run(rows, []string{"amount"}, data, Options{Schema: schema, ReviewRate: 0.01})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Summary.FlaggedCount < 9 || result.Summary.FlaggedCount > 11 {
		t.Errorf("FlaggedCount = %d, want close to 10", result.Summary.FlaggedCount)
	}
}

func TestRun_ProducesScoredCSVWithExtraColumns(t *testing.T) {
	rows := []map[string]string{
		{"amount": "100", "IsAnomaly": "1"},
		{"amount": "5", "IsAnomaly": "0"},
	}
	schema := features.Schema{"amount": features.ColNumber}
	model := &domain.LogRegModel{Weights: []float64{1}, Bias: 0, Names: []string{"amount"}, Norm: domain.NewNormalizationContext()}
	model.Norm.NumericStats["amount"] = domain.ColumnStats{Mean: 50, Std: 10}
	data, _ := artifact.Serialize(model)

	result, err := Run(rows, []string{"amount", "IsAnomaly"}, data, Options{Schema: schema, ReviewRate: 0.5})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	csvStr := string(result.ScoredCSV)
	if !strings.Contains(csvStr, "AnomalyScore") || !strings.Contains(csvStr, "PredictedLabel") {
		t.Errorf("scored CSV missing extra columns: %s", csvStr)
	}
	if result.Summary.MetricsIfLabelsPresent == nil {
		t.Error("expected metrics when labels are present")
	}
}

func TestRun_InvalidReviewRateErrors(t *testing.T) {
	model := &domain.LogRegModel{Weights: []float64{1}, Names: []string{"a"}}
	data, _ := artifact.Serialize(model)
	_, err := Run(nil, nil, data, Options{ReviewRate: 2.0})
	if err == nil {
		t.Error("expected error for invalid review rate")
	}
}
