// Package bakeoff orchestrates training and selecting a champion across a
// list of candidate algorithm/hyperparameter configurations. Candidates are
// trained independently, in input order; one candidate's failure never
// aborts the others.
package bakeoff

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/algorithms"
	"github.com/finshield/mlengine/internal/infra/artifact"
	"github.com/finshield/mlengine/internal/infra/features"
	"github.com/finshield/mlengine/internal/infra/importance"
	"github.com/finshield/mlengine/internal/infra/metrics"
	"github.com/finshield/mlengine/internal/infra/observability"
	"github.com/finshield/mlengine/internal/infra/rubric"
)

// Candidate is one bake-off entry before training.
type Candidate struct {
	Algorithm   domain.Algorithm
	Hyperparams map[string]float64
}

// Config controls one bake-off run.
type Config struct {
	Candidates        []Candidate
	RubricConfig      domain.RubricConfig
	ReviewRate        float64
	Seed              uint64 // base seed; candidate i trains with Seed + i*1000
	ImportanceRepeats int    // default 3 when 0
	Tracer            *observability.Tracer
}

// candidateSeedStride keeps each candidate's internal per-tree seeding
// (seed+treeIndex+1 inside random forest / extra trees) from overlapping
// with the next candidate's range.
const candidateSeedStride = 1000

// Result is the outcome of a complete bake-off.
type Result struct {
	Candidates    []domain.CandidateResult
	Ranked        []int
	ChampionIndex int
	Summary       string
	Report        string
}

// Run parses the dataset once, builds the training-mode feature matrix
// once, trains every candidate, and applies the rubric. It fails only when
// the input itself is invalid or every candidate training run fails.
func Run(rows []map[string]string, schema features.Schema, labelColumn string, cfg Config, sink domain.ProgressSink) (Result, error) {
	if cfg.ReviewRate <= 0 || cfg.ReviewRate > 1 {
		return Result{}, domain.ErrInvalidReviewRate
	}

	ctx := context.Background()
	tracer := cfg.Tracer

	buildSpan := tracer.StartSpan(ctx, "feature-build", map[string]string{"rows": fmt.Sprintf("%d", len(rows))})
	X, y, norm, err := features.Build(rows, schema, labelColumn, nil)
	tracer.EndSpan(buildSpan, err)
	if err != nil {
		return Result{}, fmt.Errorf("bakeoff: %w", err)
	}
	if y == nil {
		return Result{}, fmt.Errorf("bakeoff: %w", domain.ErrLabelColumnMissing)
	}
	if y.PositiveCount() == 0 || y.NegativeCount() == 0 {
		return Result{}, fmt.Errorf("bakeoff: %w", domain.ErrSingleClass)
	}

	total := len(cfg.Candidates)
	results := make([]domain.CandidateResult, total)
	failures := 0

	for i, c := range cfg.Candidates {
		seed := cfg.Seed + uint64(i)*candidateSeedStride
		result := trainCandidate(ctx, tracer, X, y, norm, c, seed, cfg.ReviewRate, cfg.ImportanceRepeats)
		results[i] = result
		if result.Failed {
			failures++
		}
		outcome := "success"
		if result.Failed {
			outcome = "failure"
		}
		observability.CandidatesTrained.WithLabelValues(string(c.Algorithm), outcome).Inc()
		if sink != nil {
			sink.Report(domain.Progress{Done: i + 1, Total: total, CurrentAlgorithm: c.Algorithm})
		}
	}

	if total > 0 && failures == total {
		observability.BakeoffRunsTotal.WithLabelValues(string(domain.BakeoffFailed)).Inc()
		return Result{Candidates: results}, fmt.Errorf("bakeoff: %w: every candidate failed", domain.ErrTrainingFailure)
	}

	ranked, championIdx := rubric.SelectChampion(results, cfg.RubricConfig)
	if championIdx >= 0 {
		observability.ChampionPRAUC.Set(results[championIdx].Metrics.PRAUC)
	}
	observability.BakeoffRunsTotal.WithLabelValues(string(domain.BakeoffCompleted)).Inc()
	return Result{
		Candidates:    results,
		Ranked:        ranked,
		ChampionIndex: championIdx,
		Summary:       rubric.Summary(results, championIdx),
		Report:        rubric.Report(results, ranked, championIdx, cfg.RubricConfig),
	}, nil
}

// trainCandidate trains one candidate behind a recover() guard: a panic
// inside an algorithm downgrades to a failed placeholder rather than
// aborting the whole bake-off.
func trainCandidate(ctx context.Context, tracer *observability.Tracer, X domain.NumericMatrix, y domain.LabelVector, norm *domain.NormalizationContext, c Candidate, seed uint64, reviewRate float64, importanceRepeats int) (result domain.CandidateResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failedCandidate(c, fmt.Sprintf("panic: %v", r))
		}
	}()

	trainStart := time.Now()
	trainSpan := tracer.StartSpan(ctx, "train", map[string]string{"algorithm": string(c.Algorithm)})
	model, err := algorithms.Train(c.Algorithm, X, y, c.Hyperparams, seed, norm)
	tracer.EndSpan(trainSpan, err)
	observability.TrainingDuration.WithLabelValues(string(c.Algorithm)).Observe(time.Since(trainStart).Seconds())
	if err != nil {
		return failedCandidate(c, err.Error())
	}

	evaluateSpan := tracer.StartSpan(ctx, "evaluate", map[string]string{"algorithm": string(c.Algorithm)})
	scores := model.PredictBatch(X)
	metricsResult := metrics.Evaluate(c.Algorithm, scores, []int(y), reviewRate)
	featureImportance := importance.Permutation(model, X, y, importanceRepeats)
	tracer.EndSpan(evaluateSpan, nil)

	serializeSpan := tracer.StartSpan(ctx, "serialize", map[string]string{"algorithm": string(c.Algorithm)})
	artifactBytes, err := artifact.Serialize(model)
	tracer.EndSpan(serializeSpan, err)
	if err != nil {
		return failedCandidate(c, err.Error())
	}

	return domain.CandidateResult{
		Algorithm:     c.Algorithm,
		Hyperparams:   c.Hyperparams,
		Model:         model,
		Metrics:       metricsResult,
		Importance:    featureImportance,
		ArtifactBytes: artifactBytes,
	}
}

func failedCandidate(c Candidate, reason string) domain.CandidateResult {
	synthetic, _ := json.Marshal(struct {
		Algorithm string `json:"algorithm"`
		Reason    string `json:"reason"`
	}{Algorithm: "error", Reason: reason})
	return domain.CandidateResult{
		Algorithm:     c.Algorithm,
		Hyperparams:   c.Hyperparams,
		Failed:        true,
		FailureReason: reason,
		ArtifactBytes: synthetic,
	}
}
