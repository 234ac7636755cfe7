// Package scoring runs a trained artifact against a fresh dataset: feature
// alignment, batch prediction, threshold selection, global and per-row
// SHAP, reason codes, and the scored output table.
package scoring

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/artifact"
	"github.com/finshield/mlengine/internal/infra/artifactcache"
	"github.com/finshield/mlengine/internal/infra/dsa"
	"github.com/finshield/mlengine/internal/infra/features"
	"github.com/finshield/mlengine/internal/infra/observability"
	"github.com/finshield/mlengine/internal/infra/reasoncodes"
	"github.com/finshield/mlengine/internal/infra/shap"
)

const defaultTopN = 200

// Options configures one scoring run. ReviewRate is ignored when
// Threshold is non-nil.
type Options struct {
	Schema      features.Schema
	ReviewRate  float64
	Threshold   *float64
	TopN        int
	WireIDField string                // header to use as Finding.WireID; row index is used if empty or absent
	Cache       *artifactcache.Cache  // optional; when set, skips re-decoding an already-seen artifact
	Tracer      *observability.Tracer // optional; when set, records per-stage spans
}

// Result bundles everything a scoring run reports.
type Result struct {
	Summary  domain.ScoringSummary
	Findings []domain.Finding
	ScoredCSV []byte
}

// Run executes the full scoring pipeline against already-parsed rows.
// CSV/XLSX decoding of the dataset itself is an external collaborator's
// responsibility; Run only consumes rows and headers.
func Run(rows []map[string]string, headers []string, artifactBytes []byte, opts Options) (Result, error) {
	if opts.ReviewRate <= 0 || opts.ReviewRate > 1 {
		return Result{}, domain.ErrInvalidReviewRate
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = defaultTopN
	}

	runStart := time.Now()
	ctx := context.Background()
	tracer := opts.Tracer

	loadSpan := tracer.StartSpan(ctx, "load", nil)
	model, err := loadModel(artifactBytes, opts.Cache)
	tracer.EndSpan(loadSpan, err)
	if err != nil {
		observability.ScoringRunsTotal.WithLabelValues(string(domain.ScoringFailed)).Inc()
		return Result{}, fmt.Errorf("scoring: deserialize artifact: %w", err)
	}
	norm := model.NormContext()

	labelCol, hasLabel := DetectLabelColumn(headers)
	buildLabel := ""
	if hasLabel {
		buildLabel = labelCol
	}
	rawX, y, _, err := features.Build(rows, opts.Schema, buildLabel, norm)
	if err != nil {
		observability.ScoringRunsTotal.WithLabelValues(string(domain.ScoringFailed)).Inc()
		return Result{}, fmt.Errorf("scoring: build features: %w", err)
	}

	alignSpan := tracer.StartSpan(ctx, "align", nil)
	aligned := Align(rawX, model.FeatureNames())
	tracer.EndSpan(alignSpan, nil)

	predictSpan := tracer.StartSpan(ctx, "predict", nil)
	scores := model.PredictBatch(aligned)
	tracer.EndSpan(predictSpan, nil)
	n := len(scores)
	observability.ScoringRowsProcessed.Add(float64(n))

	threshold := opts.Threshold
	var thresholdUsed float64
	if threshold != nil {
		thresholdUsed = *threshold
	} else {
		sorted := append([]float64(nil), scores...)
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
		pos := int(math.Floor(opts.ReviewRate*float64(n))) - 1
		if pos < 0 {
			pos = 0
		}
		if pos >= n {
			pos = n - 1
		}
		if n > 0 {
			thresholdUsed = sorted[pos]
		}
	}

	flaggedIdx := make([]int, 0, n)
	for i, s := range scores {
		if s >= thresholdUsed {
			flaggedIdx = append(flaggedIdx, i)
		}
	}

	featureMeans := columnMeans(aligned)
	globalImportance, globalList := shap.Global(model, aligned, featureMeans, 0)

	selector := dsa.NewTopK(topN)
	for rank, idx := range flaggedIdx {
		selector.Add(dsa.ScoredItem{Score: scores[idx], Index: rank, Value: idx})
	}
	topFlagged := make([]int, 0, selector.Len())
	for _, item := range selector.Items() {
		topFlagged = append(topFlagged, item.Value.(int))
	}

	wireIDs := resolveWireIDs(rows, headers, opts.WireIDField)

	explainSpan := tracer.StartSpan(ctx, "explain", nil)
	findings := make([]domain.Finding, len(topFlagged))
	for rank, idx := range topFlagged {
		_, contrib, shapErr := shap.Explain(model, aligned.Rows[idx], featureMeans)
		var codes []domain.ReasonCode
		if shapErr == nil {
			codes = reasoncodes.Build(aligned.FeatureNames, aligned.Rows[idx], contrib, globalImportance)
		}
		predictedLabel := 0
		if scores[idx] >= thresholdUsed {
			predictedLabel = 1
		}
		findings[rank] = domain.Finding{
			WireID:         wireIDs[idx],
			Rank:           rank + 1,
			Score:          scores[idx],
			PredictedLabel: predictedLabel,
			ReasonCodes:    codes,
		}
	}
	tracer.EndSpan(explainSpan, nil)
	observability.ScoringRowsFlagged.Add(float64(len(flaggedIdx)))

	summary := domain.ScoringSummary{
		ReviewRate:            opts.ReviewRate,
		ThresholdUsed:         thresholdUsed,
		FlaggedCount:          len(flaggedIdx),
		RowCount:              n,
		GlobalShapTopFeatures: globalList,
	}
	if hasLabel && y != nil {
		mr := evaluateAgainstThreshold(scores, []int(y), thresholdUsed)
		summary.MetricsIfLabelsPresent = &mr
	}

	emitSpan := tracer.StartSpan(ctx, "emit", nil)
	scoredCSV, err := buildScoredCSV(rows, headers, scores, thresholdUsed)
	tracer.EndSpan(emitSpan, err)
	if err != nil {
		observability.ScoringRunsTotal.WithLabelValues(string(domain.ScoringFailed)).Inc()
		return Result{}, fmt.Errorf("scoring: build scored output: %w", err)
	}

	observability.ScoringDuration.Observe(time.Since(runStart).Seconds())
	observability.ScoringRunsTotal.WithLabelValues(string(domain.ScoringScored)).Inc()
	return Result{Summary: summary, Findings: findings, ScoredCSV: scoredCSV}, nil
}

// loadModel deserializes an artifact, routing through cache when one is
// given so a repeated scoring run against the same artifact bytes skips
// the JSON decode.
func loadModel(artifactBytes []byte, cache *artifactcache.Cache) (domain.TrainedModel, error) {
	if cache == nil {
		return artifact.Deserialize(artifactBytes)
	}
	return cache.Get(artifactBytes, artifact.Deserialize)
}

func columnMeans(X domain.NumericMatrix) []float64 {
	means := make([]float64, X.NFeatures())
	if X.NSamples() == 0 {
		return means
	}
	for _, row := range X.Rows {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(X.NSamples())
	}
	return means
}

func resolveWireIDs(rows []map[string]string, headers []string, field string) []string {
	idField := field
	if idField == "" {
		for _, h := range headers {
			lower := strings.ToLower(h)
			if lower == "wireid" || lower == "wire_id" || lower == "id" {
				idField = h
				break
			}
		}
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		if idField != "" {
			if v, ok := row[idField]; ok && v != "" {
				ids[i] = v
				continue
			}
		}
		ids[i] = strconv.Itoa(i)
	}
	return ids
}

func evaluateAgainstThreshold(scores []float64, y []int, threshold float64) domain.MetricsResult {
	var tp, fp, fn int
	for i, s := range scores {
		predicted := 0
		if s >= threshold {
			predicted = 1
		}
		switch {
		case predicted == 1 && y[i] == 1:
			tp++
		case predicted == 1 && y[i] == 0:
			fp++
		case predicted == 0 && y[i] == 1:
			fn++
		}
	}
	precision := 0.0
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	recall := 0.0
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return domain.MetricsResult{
		PrecisionAtReviewRate: round4(precision),
		RecallAtReviewRate:    round4(recall),
		F1:                    round4(f1),
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// buildScoredCSV appends AnomalyScore (6 decimals) and PredictedLabel
// (0/1) to the original dataset columns, in their original order.
func buildScoredCSV(rows []map[string]string, headers []string, scores []float64, threshold float64) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.UseCRLF = false

	outHeaders := append(append([]string(nil), headers...), "AnomalyScore", "PredictedLabel")
	if err := w.Write(outHeaders); err != nil {
		return nil, err
	}

	for i, row := range rows {
		record := make([]string, 0, len(outHeaders))
		for _, h := range headers {
			record = append(record, row[h])
		}
		record = append(record, strconv.FormatFloat(scores[i], 'f', 6, 64))
		predicted := "0"
		if scores[i] >= threshold {
			predicted = "1"
		}
		record = append(record, predicted)
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
