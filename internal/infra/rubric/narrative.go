package rubric

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finshield/mlengine/internal/domain"
)

// Summary produces a single human-readable sentence naming the champion
// and its headline metrics.
func Summary(candidates []domain.CandidateResult, championIdx int) string {
	if championIdx < 0 || championIdx >= len(candidates) {
		return "No candidate could be selected as champion."
	}
	c := candidates[championIdx]
	return fmt.Sprintf(
		"Champion: %s (PR-AUC %.3f, Recall@RR %.3f, Precision@RR %.3f).",
		c.Algorithm, c.Metrics.PRAUC, c.Metrics.RecallAtReviewRate, c.Metrics.PrecisionAtReviewRate,
	)
}

// Report renders a Markdown bake-off report: champion metrics, per-candidate
// constraint pass/fail, a comparison table, the champion's top-5
// permutation importance, and the rubric weights that drove selection.
func Report(candidates []domain.CandidateResult, ranked []int, championIdx int, cfg domain.RubricConfig) string {
	var b strings.Builder

	b.WriteString("# Bake-off Report\n\n")
	b.WriteString(Summary(candidates, championIdx))
	b.WriteString("\n\n")

	b.WriteString("## Candidates\n\n")
	b.WriteString("| Rank | Algorithm | PR-AUC | Recall@RR | Precision@RR | F1 | Stability | Explainability | Constraints |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for rank, idx := range ranked {
		c := candidates[idx]
		status := "fail"
		if !c.Failed && PassesConstraints(c.Metrics, cfg) {
			status = "pass"
		}
		if c.Failed {
			status = "error: " + c.FailureReason
		}
		b.WriteString(fmt.Sprintf(
			"| %d | %s | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %s |\n",
			rank+1, c.Algorithm, c.Metrics.PRAUC, c.Metrics.RecallAtReviewRate, c.Metrics.PrecisionAtReviewRate,
			c.Metrics.F1, c.Metrics.Stability, c.Metrics.Explainability, status,
		))
	}

	if championIdx >= 0 && championIdx < len(candidates) {
		b.WriteString("\n## Champion top features\n\n")
		for _, fi := range topImportance(candidates[championIdx].Importance, 5) {
			b.WriteString(fmt.Sprintf("- %s: %.4f\n", fi.Feature, fi.Value))
		}
	}

	b.WriteString("\n## Rubric weights\n\n")
	b.WriteString(fmt.Sprintf(
		"recall=%.2f, prAuc=%.2f, precision=%.2f, stability=%.2f, explainability=%.2f\n",
		cfg.Weights.RecallAtReviewRate, cfg.Weights.PRAUC, cfg.Weights.PrecisionAtReviewRate,
		cfg.Weights.Stability, cfg.Weights.Explainability,
	))
	b.WriteString(fmt.Sprintf(
		"\nConstraints: minRecallAtReviewRate=%.2f, minPrecisionAtReviewRate=%.2f\n",
		cfg.Constraints.MinRecallAtReviewRate, cfg.Constraints.MinPrecisionAtReviewRate,
	))

	return b.String()
}

func topImportance(m map[string]float64, n int) []domain.FeatureImportance {
	list := make([]domain.FeatureImportance, 0, len(m))
	for f, v := range m {
		list = append(list, domain.FeatureImportance{Feature: f, Value: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Value != list[j].Value {
			return list[i].Value > list[j].Value
		}
		return list[i].Feature < list[j].Feature
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
