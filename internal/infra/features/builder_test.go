package features

import (
	"math"
	"testing"

	"github.com/finshield/mlengine/internal/domain"
)

func sampleRows() []map[string]string {
	return []map[string]string{
		{"label": "1", "amount": "100.00", "channel": "wire", "txDate": "2024-01-02 03:00:00", "isRush": "true"},
		{"label": "0", "amount": "50.00", "channel": "ach", "txDate": "2024-01-03 10:00:00", "isRush": "false"},
		{"label": "0", "amount": "75.50", "channel": "wire", "txDate": "2024-01-04 19:30:00", "isRush": "no"},
		{"label": "1", "amount": "200.00", "channel": "check", "txDate": "2024-01-05 02:15:00", "isRush": "yes"},
	}
}

func sampleSchema() Schema {
	return Schema{
		"amount":  ColCurrency,
		"channel": ColCategorical,
		"txDate":  ColDate,
		"isRush":  ColBoolean,
	}
}

func TestBuild_TrainingMode_ProducesContext(t *testing.T) {
	rows := sampleRows()
	X, y, norm, err := Build(rows, sampleSchema(), "label", nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if X.NSamples() != 4 {
		t.Fatalf("NSamples() = %d, want 4", X.NSamples())
	}
	if len(y) != 4 || y[0] != 1 || y[1] != 0 {
		t.Fatalf("labels = %v, unexpected", y)
	}
	if _, ok := norm.NumericStats["amount"]; !ok {
		t.Error("expected amount column stats in context")
	}
	if len(norm.CategoricalMappings["channel"]) == 0 {
		t.Error("expected channel categories in context")
	}
}

func TestBuild_AmountColumn_EmitsExtraFeatures(t *testing.T) {
	X, _, _, err := Build(sampleRows(), sampleSchema(), "label", nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	hasZScore, hasLog := false, false
	for _, name := range X.FeatureNames {
		if name == "amount_zScore" {
			hasZScore = true
		}
		if name == "amount_log" {
			hasLog = true
		}
	}
	if !hasZScore || !hasLog {
		t.Errorf("feature names = %v, missing amount_zScore/amount_log", X.FeatureNames)
	}
}

func TestBuild_ScoringMode_ReusesContext(t *testing.T) {
	trainRows := sampleRows()
	_, _, norm, err := Build(trainRows, sampleSchema(), "label", nil)
	if err != nil {
		t.Fatalf("training Build() error = %v", err)
	}

	scoreRows := []map[string]string{
		{"amount": "60.00", "channel": "wire", "txDate": "2024-02-01 09:00:00", "isRush": "false"},
	}
	X, y, norm2, err := Build(scoreRows, sampleSchema(), "label", norm)
	if err != nil {
		t.Fatalf("scoring Build() error = %v", err)
	}
	if norm2 != norm {
		t.Error("scoring mode should return the same context instance it was given")
	}
	if y != nil {
		t.Errorf("expected no labels in scoring mode without a label column, got %v", y)
	}
	if X.NSamples() != 1 {
		t.Fatalf("NSamples() = %d, want 1", X.NSamples())
	}
}

func TestBuild_FeatureNameOrdering_StableBetweenTrainAndScore(t *testing.T) {
	_, _, norm, err := Build(sampleRows(), sampleSchema(), "label", nil)
	if err != nil {
		t.Fatalf("training Build() error = %v", err)
	}
	X1, _, _, err := Build(sampleRows(), sampleSchema(), "label", nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	X2, _, _, err := Build(sampleRows()[:1], sampleSchema(), "label", norm)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(X1.FeatureNames) != len(X2.FeatureNames) {
		t.Fatalf("feature name count differs: %d vs %d", len(X1.FeatureNames), len(X2.FeatureNames))
	}
	for i := range X1.FeatureNames {
		if X1.FeatureNames[i] != X2.FeatureNames[i] {
			t.Errorf("feature[%d] = %q, want %q", i, X2.FeatureNames[i], X1.FeatureNames[i])
		}
	}
}

func TestBuild_UnseenCategory_EmitsAllZero(t *testing.T) {
	_, _, norm, err := Build(sampleRows(), sampleSchema(), "label", nil)
	if err != nil {
		t.Fatalf("training Build() error = %v", err)
	}
	scoreRows := []map[string]string{
		{"amount": "10.00", "channel": "totally-unseen", "txDate": "2024-02-01 09:00:00", "isRush": "false"},
	}
	X, _, _, err := Build(scoreRows, sampleSchema(), "label", norm)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i, name := range X.FeatureNames {
		if len(name) > 8 && name[:8] == "channel_" {
			if X.Rows[0][i] != 0 {
				t.Errorf("feature %s = %f, want 0 for unseen category", name, X.Rows[0][i])
			}
		}
	}
}

func TestEncodeDate_Buckets(t *testing.T) {
	tests := []struct {
		name            string
		raw             string
		wantOutOfHours  float64
		wantExtended    float64
		wantParseFailed bool
	}{
		{"deep night out of hours", "2024-01-02 02:00:00", 1, 0, false},
		{"early morning extended", "2024-01-02 07:00:00", 0, 1, false},
		{"business hours neither", "2024-01-02 12:00:00", 0, 0, false},
		{"evening extended", "2024-01-02 18:00:00", 0, 1, false},
		{"late night out of hours", "2024-01-02 23:00:00", 1, 0, false},
		{"unparseable", "not-a-date", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feats := encodeDate(tt.raw)
			if len(feats) != 5 {
				t.Fatalf("encodeDate() len = %d, want 5", len(feats))
			}
			if tt.wantParseFailed {
				for _, f := range feats {
					if f != 0 {
						t.Errorf("unparseable date feature = %v, want all zero", feats)
					}
				}
				return
			}
			if feats[3] != tt.wantOutOfHours {
				t.Errorf("isOutOfHours = %f, want %f", feats[3], tt.wantOutOfHours)
			}
			if feats[4] != tt.wantExtended {
				t.Errorf("isExtendedHours = %f, want %f", feats[4], tt.wantExtended)
			}
		})
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1", 1}, {"True", 1}, {"YES", 1},
		{"0", 0}, {"false", 0}, {"No", 0},
		{"0.7", 1}, {"0.3", 0},
		{"garbage", 0}, {"", 0},
	}
	for _, tt := range tests {
		if got := parseLabel(tt.raw); got != tt.want {
			t.Errorf("parseLabel(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParseNumeric_StripsCurrencyDecoration(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"$1,000.50", 1000.50},
		{" 42 ", 42},
		{"", math.NaN()},
		{"n/a", math.NaN()},
	}
	for _, tt := range tests {
		got := parseNumeric(tt.raw)
		if math.IsNaN(tt.want) {
			if !math.IsNaN(got) {
				t.Errorf("parseNumeric(%q) = %f, want NaN", tt.raw, got)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("parseNumeric(%q) = %f, want %f", tt.raw, got, tt.want)
		}
	}
}

func TestZScore_ZeroStdEmitsZero(t *testing.T) {
	got := zScore(5, domain.ColumnStats{Mean: 3, Std: 0})
	if got != 0 {
		t.Errorf("zScore with std=0 = %f, want 0", got)
	}
}

func TestZScore_MissingValueImputedToZero(t *testing.T) {
	got := zScore(math.NaN(), domain.ColumnStats{Mean: 3, Std: 2})
	if got != 0 {
		t.Errorf("zScore(NaN) = %f, want 0", got)
	}
}

func TestTopCategories_CapsAtTenAndBreaksTiesByName(t *testing.T) {
	rows := []map[string]string{}
	for i := 0; i < 12; i++ {
		rows = append(rows, map[string]string{"c": string(rune('a' + i))})
	}
	cats := topCategories(rows, "c")
	if len(cats) != 10 {
		t.Fatalf("len(cats) = %d, want 10", len(cats))
	}
	for i, c := range cats {
		if want := string(rune('a' + i)); c != want {
			t.Errorf("cats[%d] = %q, want %q", i, c, want)
		}
	}
}

func TestBuild_EmptyDataset_Errors(t *testing.T) {
	_, _, _, err := Build(nil, sampleSchema(), "label", nil)
	if err == nil {
		t.Error("expected error for empty dataset")
	}
}
