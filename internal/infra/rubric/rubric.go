// Package rubric applies the two-phase constraint-then-score selection
// rule that picks a bake-off's champion candidate.
package rubric

import (
	"sort"

	"github.com/finshield/mlengine/internal/domain"
)

// SelectChampion ranks candidates and picks the champion. Candidates that
// satisfy both constraints are ranked by weighted metric score, highest
// first; if none satisfy both, every candidate (failed ones included,
// carrying their zero-metric placeholder) is ranked by recall alone. Ties
// preserve input order.
func SelectChampion(candidates []domain.CandidateResult, cfg domain.RubricConfig) (ranked []int, championIdx int) {
	var passing []int
	for i, c := range candidates {
		if c.Failed {
			continue
		}
		if c.Metrics.RecallAtReviewRate >= cfg.Constraints.MinRecallAtReviewRate &&
			c.Metrics.PrecisionAtReviewRate >= cfg.Constraints.MinPrecisionAtReviewRate {
			passing = append(passing, i)
		}
	}

	if len(passing) > 0 {
		sort.SliceStable(passing, func(a, b int) bool {
			return weightedScore(candidates[passing[a]].Metrics, cfg.Weights) > weightedScore(candidates[passing[b]].Metrics, cfg.Weights)
		})
		return passing, passing[0]
	}

	all := make([]int, len(candidates))
	for i := range all {
		all[i] = i
	}
	sort.SliceStable(all, func(a, b int) bool {
		return candidates[all[a]].Metrics.RecallAtReviewRate > candidates[all[b]].Metrics.RecallAtReviewRate
	})
	if len(all) == 0 {
		return all, -1
	}
	return all, all[0]
}

func weightedScore(m domain.MetricsResult, w domain.RubricWeights) float64 {
	return w.RecallAtReviewRate*m.RecallAtReviewRate +
		w.PRAUC*m.PRAUC +
		w.PrecisionAtReviewRate*m.PrecisionAtReviewRate +
		w.Stability*m.Stability +
		w.Explainability*m.Explainability
}

// PassesConstraints reports whether a single candidate clears both
// rubric constraints, used by the narrative generator's pass/fail table.
func PassesConstraints(m domain.MetricsResult, cfg domain.RubricConfig) bool {
	return m.RecallAtReviewRate >= cfg.Constraints.MinRecallAtReviewRate &&
		m.PrecisionAtReviewRate >= cfg.Constraints.MinPrecisionAtReviewRate
}
