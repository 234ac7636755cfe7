// Package reasoncodes turns a scored row's SHAP contributions into a
// short, ranked list of human-readable tags, matched against a fixed
// table of feature-name patterns and trigger conditions.
package reasoncodes

import (
	"math"
	"regexp"

	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/dsa"
)

const (
	defaultShapThreshold     = 0.05
	globalImportanceFallback = 0.05
	maxReasonCodes           = 5
)

// Template is one entry in the fixed reason-code table: a code, a
// description, feature-name patterns (case-insensitive), and a trigger
// condition evaluated against a matching feature's own value, its |SHAP|,
// or (last resort) its global importance.
type Template struct {
	Code          string
	Description   string
	Patterns      []*regexp.Regexp
	ValueCheck    func(value float64) bool
	ShapThreshold float64 // 0 means defaultShapThreshold
}

func (t Template) matchesName(name string) bool {
	for _, p := range t.Patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func (t Template) triggered(value, absSHAP, globalImportance float64) bool {
	threshold := t.ShapThreshold
	if threshold == 0 {
		threshold = defaultShapThreshold
	}
	if t.ValueCheck != nil && t.ValueCheck(value) {
		return true
	}
	if absSHAP >= threshold {
		return true
	}
	return globalImportance > globalImportanceFallback
}

func pattern(s string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + s)
}

func isPositive(v float64) bool { return v >= 1 }
func isZero(v float64) bool     { return v == 0 }
func isHigh(threshold float64) func(float64) bool {
	return func(v float64) bool { return v > threshold }
}

// Templates is the fixed, builtin reason-code table.
func Templates() []Template {
	return []Template{
		{
			Code:        "AMOUNT_VS_BASELINE",
			Description: "Transaction amount is substantially above the trained baseline",
			Patterns:    []*regexp.Regexp{pattern("amount")},
			ValueCheck:  isHigh(2),
		},
		{
			Code:        "OUT_OF_HOURS",
			Description: "Transaction occurred outside normal business hours",
			Patterns:    []*regexp.Regexp{pattern("isOutOfHours")},
			ValueCheck:  isPositive,
		},
		{
			Code:        "WEEKEND",
			Description: "Transaction occurred on a weekend",
			Patterns:    []*regexp.Regexp{pattern("isWeekend")},
			ValueCheck:  isPositive,
		},
		{
			Code:        "DESTINATION_RISK_CORRIDOR",
			Description: "Destination falls in a historically high-risk corridor",
			Patterns:    []*regexp.Regexp{pattern("destination"), pattern("corridor"), pattern("country"), pattern("beneficiary")},
		},
		{
			Code:        "CALLBACK_BYPASS",
			Description: "Callback verification was bypassed",
			Patterns:    []*regexp.Regexp{pattern("callback")},
			ValueCheck:  isZero,
		},
		{
			Code:        "SOD_EXCEPTION",
			Description: "Transaction violated segregation-of-duties controls",
			Patterns:    []*regexp.Regexp{pattern("sod"), pattern("segregation")},
			ValueCheck:  isPositive,
		},
		{
			Code:        "BURST",
			Description: "Part of an unusually rapid burst of transactions",
			Patterns:    []*regexp.Regexp{pattern("burst"), pattern("velocity"), pattern("frequency")},
			ValueCheck:  isHigh(2),
		},
		{
			Code:        "IRREGULAR_APPROVAL",
			Description: "Approval pattern deviates from normal workflow",
			Patterns:    []*regexp.Regexp{pattern("approval"), pattern("approver"), pattern("override")},
		},
	}
}

// Build matches every template against one scored row's feature vector and
// SHAP contributions, ranks the matches by the triggering feature's |SHAP|
// (falling back to its global importance when SHAP is unavailable or
// zero), and returns the top five as ReasonCodes with a tier derived from
// that same ranking value.
func Build(featureNames []string, x []float64, shapContrib []float64, globalImportance map[string]float64) []domain.ReasonCode {
	type candidate struct {
		code, description string
		rank              float64
	}

	var candidates []candidate
	for _, t := range Templates() {
		bestAbsSHAP := -1.0
		bestImportance := 0.0
		matched := false
		for i, name := range featureNames {
			if !t.matchesName(name) {
				continue
			}
			absSHAP := math.Abs(shapContrib[i])
			gi := globalImportance[name]
			if !t.triggered(x[i], absSHAP, gi) {
				continue
			}
			matched = true
			if absSHAP > bestAbsSHAP {
				bestAbsSHAP = absSHAP
				bestImportance = gi
			}
		}
		if !matched {
			continue
		}
		rank := bestAbsSHAP
		if rank <= 0 {
			rank = bestImportance
		}
		candidates = append(candidates, candidate{t.Code, t.Description, rank})
	}

	selector := dsa.NewTopK(maxReasonCodes)
	for i, c := range candidates {
		selector.Add(dsa.ScoredItem{Score: c.rank, Index: i, Value: c})
	}
	ranked := selector.Items()

	out := make([]domain.ReasonCode, len(ranked))
	for i, item := range ranked {
		c := item.Value.(candidate)
		out[i] = domain.ReasonCode{Code: c.code, Description: c.description, Contribution: tier(c.rank)}
	}
	return out
}

func tier(v float64) string {
	switch {
	case v > 0.1:
		return "high"
	case v > 0.03:
		return "medium"
	default:
		return "low"
	}
}
