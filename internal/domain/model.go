// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// ─── Data Model ─────────────────────────────────────────────────────────────

// NumericMatrix is a row-major dense feature matrix: nSamples x nFeatures.
// Every row has the same length as FeatureNames; missing values have already
// been imputed to 0 by the time a matrix leaves the feature builder.
type NumericMatrix struct {
	Rows         [][]float64
	FeatureNames []string
}

// NSamples returns the number of rows.
func (m NumericMatrix) NSamples() int { return len(m.Rows) }

// NFeatures returns the number of columns.
func (m NumericMatrix) NFeatures() int { return len(m.FeatureNames) }

// LabelVector is 0/1 per sample.
type LabelVector []int

// PositiveCount returns how many samples are labeled 1.
func (y LabelVector) PositiveCount() int {
	n := 0
	for _, v := range y {
		if v == 1 {
			n++
		}
	}
	return n
}

// NegativeCount returns how many samples are labeled 0.
func (y LabelVector) NegativeCount() int {
	return len(y) - y.PositiveCount()
}

// ColumnStats holds training-time mean/std for one numeric column.
type ColumnStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// NormalizationContext is the training-time statistics every scoring run
// must reuse verbatim: per-numeric-column (mean, std) and per-categorical
// top-K category lists. Built exactly once, during training; read-only
// afterward, and embedded in every model artifact.
type NormalizationContext struct {
	NumericStats         map[string]ColumnStats `json:"numericStats"`
	CategoricalMappings  map[string][]string    `json:"categoricalMappings"`
}

// NewNormalizationContext returns an empty, ready-to-populate context.
func NewNormalizationContext() *NormalizationContext {
	return &NormalizationContext{
		NumericStats:        make(map[string]ColumnStats),
		CategoricalMappings: make(map[string][]string),
	}
}

// ─── Algorithm Identifiers ──────────────────────────────────────────────────

// Algorithm tags the five supported training algorithms plus the artifact
// tag produced only internally by the extra-trees ensemble (ExtraTree,
// a single tree round-trippable on its own).
type Algorithm string

const (
	AlgoLogReg       Algorithm = "log_reg"
	AlgoDecisionTree Algorithm = "decision_tree"
	AlgoExtraTree    Algorithm = "extra_tree"
	AlgoRandomForest Algorithm = "random_forest"
	AlgoExtraTrees   Algorithm = "extra_trees"
	AlgoGBT          Algorithm = "gradient_boosted"
)

// ─── Tree Nodes (sum type) ──────────────────────────────────────────────────

// NodeKind discriminates the Node sum type: Leaf | Split.
type NodeKind int

const (
	NodeLeaf NodeKind = iota
	NodeSplit
)

// Node is a single tree node. Kind determines which fields are meaningful:
// NodeLeaf uses only Value; NodeSplit uses FeatureIndex, Threshold, Left, Right.
// Leaf.Value is a probability for classification trees, or a mean residual
// for GBT regression trees.
type Node struct {
	Kind         NodeKind
	Value        float64
	FeatureIndex int
	Threshold    float64
	Left         *Node
	Right        *Node
}

// Predict walks the tree for a single feature row and returns the leaf value.
func (n *Node) Predict(x []float64) float64 {
	cur := n
	for cur.Kind == NodeSplit {
		if x[cur.FeatureIndex] <= cur.Threshold {
			cur = cur.Left
		} else {
			cur = cur.Right
		}
	}
	return cur.Value
}

// ─── Trained Model (tagged variant) ─────────────────────────────────────────

// TrainedModel is the polymorphic result of any trainer. Every concrete
// variant carries its own featureNames and training NormalizationContext.
type TrainedModel interface {
	Algorithm() Algorithm
	FeatureNames() []string
	NormContext() *NormalizationContext
	Predict(x []float64) float64
	PredictBatch(m NumericMatrix) []float64
}

// LogRegModel is a logistic regression classifier: sigmoid(w.x + b).
type LogRegModel struct {
	Weights []float64
	Bias    float64
	Names   []string
	Norm    *NormalizationContext
}

func (m *LogRegModel) Algorithm() Algorithm                 { return AlgoLogReg }
func (m *LogRegModel) FeatureNames() []string                { return m.Names }
func (m *LogRegModel) NormContext() *NormalizationContext     { return m.Norm }
func (m *LogRegModel) Predict(x []float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		z += w * x[i]
	}
	return Sigmoid(z)
}
func (m *LogRegModel) PredictBatch(mat NumericMatrix) []float64 {
	return predictBatch(m, mat)
}

// TreeModel wraps a single decision tree (CART or extra-tree).
type TreeModel struct {
	Root  *Node
	Names []string
	Norm  *NormalizationContext
	Tag   Algorithm // AlgoDecisionTree or AlgoExtraTree
}

func (m *TreeModel) Algorithm() Algorithm             { return m.Tag }
func (m *TreeModel) FeatureNames() []string            { return m.Names }
func (m *TreeModel) NormContext() *NormalizationContext { return m.Norm }
func (m *TreeModel) Predict(x []float64) float64       { return m.Root.Predict(x) }
func (m *TreeModel) PredictBatch(mat NumericMatrix) []float64 {
	return predictBatch(m, mat)
}

// ForestModel wraps a bagged ensemble of trees, each trained on a subset of
// features. FeatureSubsets[i][j] maps tree i's local feature index j back to
// the global feature index.
type ForestModel struct {
	Trees          []*Node
	FeatureSubsets [][]int
	Names          []string
	Norm           *NormalizationContext
	Tag            Algorithm // AlgoRandomForest or AlgoExtraTrees
}

func (m *ForestModel) Algorithm() Algorithm             { return m.Tag }
func (m *ForestModel) FeatureNames() []string            { return m.Names }
func (m *ForestModel) NormContext() *NormalizationContext { return m.Norm }
func (m *ForestModel) Predict(x []float64) float64 {
	if len(m.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for i, tree := range m.Trees {
		localX := projectLocal(x, m.FeatureSubsets[i])
		sum += tree.Predict(localX)
	}
	return sum / float64(len(m.Trees))
}
func (m *ForestModel) PredictBatch(mat NumericMatrix) []float64 {
	return predictBatch(m, mat)
}

// GBTModel wraps a sequence of regression trees fit to log-loss residuals.
type GBTModel struct {
	BasePrediction float64 // base log-odds
	LearningRate   float64
	Trees          []*Node
	Names          []string
	Norm           *NormalizationContext
}

func (m *GBTModel) Algorithm() Algorithm             { return AlgoGBT }
func (m *GBTModel) FeatureNames() []string            { return m.Names }
func (m *GBTModel) NormContext() *NormalizationContext { return m.Norm }
func (m *GBTModel) Predict(x []float64) float64 {
	raw := m.BasePrediction
	for _, tree := range m.Trees {
		raw += m.LearningRate * tree.Predict(x)
	}
	return Sigmoid(raw)
}
func (m *GBTModel) PredictBatch(mat NumericMatrix) []float64 {
	return predictBatch(m, mat)
}

func predictBatch(m TrainedModel, mat NumericMatrix) []float64 {
	out := make([]float64, len(mat.Rows))
	for i, row := range mat.Rows {
		out[i] = m.Predict(row)
	}
	return out
}

func projectLocal(global []float64, subset []int) []float64 {
	local := make([]float64, len(subset))
	for j, gi := range subset {
		local[j] = global[gi]
	}
	return local
}

// Sigmoid clamps z outside +/-500 before exponentiating, per the training
// contract's numeric-stability requirement.
func Sigmoid(z float64) float64 {
	if z > 500 {
		z = 500
	} else if z < -500 {
		z = -500
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// ─── Metrics & Rubric ───────────────────────────────────────────────────────

// MetricsResult bundles the six evaluation metrics, all in [0,1].
type MetricsResult struct {
	PRAUC                 float64 `json:"prAuc"`
	RecallAtReviewRate     float64 `json:"recallAtReviewRate"`
	PrecisionAtReviewRate  float64 `json:"precisionAtReviewRate"`
	F1                     float64 `json:"f1"`
	Stability              float64 `json:"stability"`
	Explainability         float64 `json:"explainability"`
}

// RubricConstraints are the hard pass/fail gates in phase 1 of selection.
type RubricConstraints struct {
	MinRecallAtReviewRate    float64 `toml:"min_recall_at_review_rate"`
	MinPrecisionAtReviewRate float64 `toml:"min_precision_at_review_rate"`
}

// RubricWeights weight the five metrics in phase 2's linear score.
type RubricWeights struct {
	RecallAtReviewRate    float64 `toml:"recall_at_review_rate"`
	PRAUC                 float64 `toml:"pr_auc"`
	PrecisionAtReviewRate float64 `toml:"precision_at_review_rate"`
	Stability             float64 `toml:"stability"`
	Explainability        float64 `toml:"explainability"`
}

// RubricConfig configures champion selection.
type RubricConfig struct {
	Constraints RubricConstraints `toml:"constraints"`
	Weights     RubricWeights     `toml:"weights"`
}

// DefaultRubricConfig matches §6's documented defaults.
func DefaultRubricConfig() RubricConfig {
	return RubricConfig{
		Constraints: RubricConstraints{
			MinRecallAtReviewRate:    0.65,
			MinPrecisionAtReviewRate: 0.08,
		},
		Weights: RubricWeights{
			RecallAtReviewRate:    0.40,
			PRAUC:                 0.25,
			PrecisionAtReviewRate: 0.15,
			Stability:             0.10,
			Explainability:        0.10,
		},
	}
}

// CandidateResult is one bake-off entry: its hyperparameters, trained model,
// evaluation, importance, and serialized artifact.
type CandidateResult struct {
	Algorithm      Algorithm
	Hyperparams    map[string]float64
	Model          TrainedModel // nil if training failed
	Metrics        MetricsResult
	Importance     map[string]float64
	ArtifactBytes  []byte
	Failed         bool
	FailureReason  string
}

// ─── Scoring ─────────────────────────────────────────────────────────────────

// ScoringSummary reports the outcome of a scoring run.
type ScoringSummary struct {
	ReviewRate              float64            `json:"reviewRate"`
	ThresholdUsed           float64            `json:"thresholdUsed"`
	FlaggedCount            int                `json:"flaggedCount"`
	RowCount                int                `json:"rowCount"`
	MetricsIfLabelsPresent  *MetricsResult     `json:"metricsIfLabelsPresent,omitempty"`
	GlobalShapTopFeatures   []FeatureImportance `json:"globalShapTopFeatures"`
}

// FeatureImportance pairs a feature name with a magnitude, used both for
// permutation importance and for global SHAP summaries.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// ReasonCode is a single human-readable tag attached to a Finding.
type ReasonCode struct {
	Code         string `json:"code"`
	Description  string `json:"description"`
	Contribution string `json:"contribution"` // "high" | "medium" | "low"
}

// Finding is one flagged row in a scoring run's output.
type Finding struct {
	WireID                  string       `json:"wireId"`
	Rank                    int          `json:"rank"`
	Score                   float64      `json:"score"`
	PredictedLabel          int          `json:"predictedLabel"`
	ReasonCodes             []ReasonCode `json:"reasonCodes"`
	LocalExplainArtifactRef string       `json:"localExplainArtifactRef,omitempty"`
}

// ─── Utilities ──────────────────────────────────────────────────────────────

// SHA256Hex computes SHA-256 hash and returns hex string. Used to content-
// address serialized artifacts for the artifact cache.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HumanSize formats bytes into a human-readable string (B, KB, MB or GB,
// base 1024).
func HumanSize(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
