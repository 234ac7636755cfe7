package features

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/finshield/mlengine/internal/domain"
)

const topKCategories = 10

// dateLayouts are tried in order when parsing a date column's raw string.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// Build transforms raw rows into a dense feature matrix. If norm is nil the
// builder runs in training mode and returns a freshly computed
// NormalizationContext; otherwise it runs in scoring mode and reuses norm
// verbatim. Training and scoring produce identical feature-name orderings
// for identical (schema, context) inputs because columns are always walked
// in sorted-name order.
func Build(rows []map[string]string, schema Schema, labelColumn string, norm *domain.NormalizationContext) (domain.NumericMatrix, domain.LabelVector, *domain.NormalizationContext, error) {
	if len(rows) == 0 {
		return domain.NumericMatrix{}, nil, nil, fmt.Errorf("build features: %w", domain.ErrEmptyDataset)
	}

	training := norm == nil
	if training {
		norm = domain.NewNormalizationContext()
	}

	cols := orderedColumns(schema, labelColumn)

	// Pass 1 (training only): compute per-column statistics the encoding
	// pass below will read from norm.
	if training {
		for _, col := range cols {
			switch schema[col] {
			case ColInteger, ColNumber, ColCurrency:
				norm.NumericStats[col] = computeColumnStats(rows, col)
			case ColString, ColCategorical:
				norm.CategoricalMappings[col] = topCategories(rows, col)
			}
		}
	}

	featureNames := buildFeatureNames(cols, schema, norm)

	X := make([][]float64, len(rows))
	for i, row := range rows {
		X[i] = encodeRow(row, cols, schema, norm)
	}

	var y domain.LabelVector
	if labelColumn != "" {
		if _, ok := rows[0][labelColumn]; ok {
			y = make(domain.LabelVector, len(rows))
			for i, row := range rows {
				y[i] = parseLabel(row[labelColumn])
			}
		}
	}

	if len(featureNames) == 0 {
		return domain.NumericMatrix{}, y, norm, fmt.Errorf("build features: %w", domain.ErrNoFeatureColumns)
	}

	return domain.NumericMatrix{Rows: X, FeatureNames: featureNames}, y, norm, nil
}

// orderedColumns returns every schema column except the label column,
// sorted by name, so repeated builds over the same schema always walk
// columns in the same order.
func orderedColumns(schema Schema, labelColumn string) []string {
	cols := make([]string, 0, len(schema))
	for col := range schema {
		if col == labelColumn {
			continue
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// buildFeatureNames mirrors encodeRow's per-column feature emission so the
// name list and every encoded row line up positionally.
func buildFeatureNames(cols []string, schema Schema, norm *domain.NormalizationContext) []string {
	var names []string
	for _, col := range cols {
		switch schema[col] {
		case ColInteger, ColNumber, ColCurrency:
			names = append(names, col)
			if schema[col] == ColCurrency && isAmountColumn(col) {
				names = append(names, col+"_zScore", col+"_log")
			}
		case ColString, ColCategorical:
			for _, cat := range norm.CategoricalMappings[col] {
				names = append(names, col+"_"+cat)
			}
		case ColDate:
			names = append(names, col+"_hourOfDay", col+"_dayOfWeek", col+"_isWeekend", col+"_isOutOfHours", col+"_isExtendedHours")
		case ColBoolean:
			names = append(names, col)
		}
	}
	return names
}

func encodeRow(row map[string]string, cols []string, schema Schema, norm *domain.NormalizationContext) []float64 {
	var out []float64
	for _, col := range cols {
		switch schema[col] {
		case ColInteger, ColNumber, ColCurrency:
			raw := parseNumeric(row[col])
			stats := norm.NumericStats[col]
			out = append(out, zScore(raw, stats))
			if schema[col] == ColCurrency && isAmountColumn(col) {
				out = append(out, zScore(raw, stats), logPlusOne(raw))
			}
		case ColString, ColCategorical:
			cats := norm.CategoricalMappings[col]
			val := row[col]
			for _, cat := range cats {
				if val == cat {
					out = append(out, 1)
				} else {
					out = append(out, 0)
				}
			}
		case ColDate:
			out = append(out, encodeDate(row[col])...)
		case ColBoolean:
			out = append(out, float64(parseLabel(row[col])))
		}
	}
	return out
}

// isAmountColumn reports whether col's name contains "amount", case-insensitive.
func isAmountColumn(col string) bool {
	return strings.Contains(strings.ToLower(col), "amount")
}

// ─── Parsing Helpers ────────────────────────────────────────────────────────

// parseLabel maps case-insensitive 1/true/yes -> 1, 0/false/no -> 0,
// otherwise parses a number and thresholds at 0.5; unparseable falls back
// to 0.
func parseLabel(raw string) int {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "1", "true", "yes":
		return 1
	case "0", "false", "no":
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f >= 0.5 {
			return 1
		}
		return 0
	}
	return 0
}

// parseNumeric strips currency decoration ($, commas, whitespace) and
// parses the remainder as a float64. Empty or unparseable input yields NaN.
func parseNumeric(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func zScore(raw float64, stats domain.ColumnStats) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	if stats.Std == 0 {
		return 0
	}
	z := (raw - stats.Mean) / stats.Std
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0
	}
	return z
}

func logPlusOne(raw float64) float64 {
	if math.IsNaN(raw) || raw < 0 {
		return 0
	}
	return math.Log(raw + 1)
}

func encodeDate(raw string) []float64 {
	t, ok := parseDate(raw)
	if !ok {
		return []float64{0, 0, 0, 0, 0}
	}
	hour := t.Hour()
	dow := float64(t.Weekday())
	isWeekend := 0.0
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		isWeekend = 1
	}
	isOutOfHours := 0.0
	if hour < 6 || hour >= 22 {
		isOutOfHours = 1
	}
	isExtended := 0.0
	if (hour >= 6 && hour < 8) || (hour >= 17 && hour < 22) {
		isExtended = 1
	}
	return []float64{float64(hour), dow, isWeekend, isOutOfHours, isExtended}
}

func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ─── Training-Time Statistics ───────────────────────────────────────────────

func computeColumnStats(rows []map[string]string, col string) domain.ColumnStats {
	var sum, sumSq float64
	var n int
	for _, row := range rows {
		v := parseNumeric(row[col])
		if math.IsNaN(v) {
			continue
		}
		sum += v
		sumSq += v * v
		n++
	}
	if n == 0 {
		return domain.ColumnStats{}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return domain.ColumnStats{Mean: mean, Std: math.Sqrt(variance)}
}

type categoryCount struct {
	value string
	count int
}

func topCategories(rows []map[string]string, col string) []string {
	counts := make(map[string]int)
	for _, row := range rows {
		v := row[col]
		if v == "" {
			continue
		}
		counts[v]++
	}
	list := make([]categoryCount, 0, len(counts))
	for v, c := range counts {
		list = append(list, categoryCount{v, c})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].value < list[j].value // stable tie-break
	})
	if len(list) > topKCategories {
		list = list[:topKCategories]
	}
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.value
	}
	return out
}
