package scoring

import (
	"regexp"
	"strings"

	"github.com/finshield/mlengine/internal/domain"
)

var labelExactCandidates = map[string]bool{
	"isanomaly":  true,
	"is_anomaly": true,
	"label":      true,
	"target":     true,
}

var labelFallbackPattern = regexp.MustCompile(`(?i)^is_?anomal|label|target|fraud|flag`)

// DetectLabelColumn searches headers case-insensitively for a known exact
// label-column name, falling back to a looser pattern match. Returns ok=false
// when no header qualifies (scoring without ground truth).
func DetectLabelColumn(headers []string) (name string, ok bool) {
	for _, h := range headers {
		if labelExactCandidates[strings.ToLower(h)] {
			return h, true
		}
	}
	for _, h := range headers {
		if labelFallbackPattern.MatchString(h) {
			return h, true
		}
	}
	return "", false
}

// Align projects a scoring-time feature matrix onto the artifact's feature
// ordering by name. When the orderings already match element-wise, mat is
// returned unchanged (no copy). Otherwise every artifact column is looked
// up by name in mat; columns absent from mat are zero-filled, and columns
// in mat absent from the artifact are dropped.
func Align(mat domain.NumericMatrix, artifactNames []string) domain.NumericMatrix {
	if namesEqual(mat.FeatureNames, artifactNames) {
		return mat
	}

	srcIndex := make(map[string]int, len(mat.FeatureNames))
	for i, name := range mat.FeatureNames {
		srcIndex[name] = i
	}

	rows := make([][]float64, len(mat.Rows))
	for i, row := range mat.Rows {
		newRow := make([]float64, len(artifactNames))
		for j, name := range artifactNames {
			if srcIdx, ok := srcIndex[name]; ok {
				newRow[j] = row[srcIdx]
			}
		}
		rows[i] = newRow
	}
	return domain.NumericMatrix{Rows: rows, FeatureNames: append([]string(nil), artifactNames...)}
}

func namesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
