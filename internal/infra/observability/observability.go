// Package observability provides lightweight distributed tracing and
// Prometheus metrics for the bake-off and scoring pipelines.
//
// This provides:
//   - Trace spans for the candidate-training and scoring lifecycles
//   - W3C-style TraceContext propagation
//   - Prometheus metrics covering bake-off throughput and scoring outcomes
//   - A bounded in-memory ring buffer of finished spans
package observability

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ═══════════════════════════════════════════════════════════════════════════
// Trace Spans — Lightweight span tracking without external OTel SDK dependency
// ═══════════════════════════════════════════════════════════════════════════

// SpanKind classifies a span.
type SpanKind int

const (
	SpanInternal SpanKind = iota
	SpanServer
	SpanClient
)

// Span represents a unit of work within a distributed trace.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	Kind      SpanKind          `json:"kind"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
	Duration  time.Duration     `json:"duration,omitempty"`
	Status    SpanStatus        `json:"status"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// SpanStatus indicates success/failure.
type SpanStatus int

const (
	SpanOK SpanStatus = iota
	SpanError
)

// ─── Tracer ─────────────────────────────────────────────────────────────────

// Tracer provides lightweight distributed tracing, storing spans in-memory
// for inspection and export rather than wrapping an external SDK.
type Tracer struct {
	mu       sync.Mutex
	spans    []Span
	maxSpans int
	enabled  bool
}

// TracerConfig configures the tracer.
type TracerConfig struct {
	Enabled  bool
	MaxSpans int // ring buffer size (default 10_000)
}

// DefaultTracerConfig returns production defaults.
func DefaultTracerConfig() TracerConfig {
	return TracerConfig{
		Enabled:  true,
		MaxSpans: 10_000,
	}
}

// NewTracer creates a new tracer.
func NewTracer(cfg TracerConfig) *Tracer {
	return &Tracer{
		spans:    make([]Span, 0, cfg.MaxSpans),
		maxSpans: cfg.MaxSpans,
		enabled:  cfg.Enabled,
	}
}

// StartSpan begins a new span with the given operation name.
// Returns the span (caller must call EndSpan when done). A nil Tracer
// returns an inert span, so tracing stays optional for every caller.
func (t *Tracer) StartSpan(ctx context.Context, operation string, attrs map[string]string) *Span {
	if t == nil || !t.enabled {
		return &Span{Operation: operation}
	}

	span := &Span{
		TraceID:   traceIDFromContext(ctx),
		SpanID:    generateID(),
		ParentID:  spanIDFromContext(ctx),
		Operation: operation,
		Kind:      SpanInternal,
		StartTime: time.Now(),
		Status:    SpanOK,
		Attrs:     attrs,
	}

	return span
}

// EndSpan completes a span and records it.
func (t *Tracer) EndSpan(span *Span, err error) {
	if t == nil || !t.enabled || span == nil {
		return
	}

	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	TracesRecorded.Inc()
	if err != nil {
		span.Status = SpanError
		if span.Attrs == nil {
			span.Attrs = make(map[string]string)
		}
		span.Attrs["error"] = err.Error()
		TraceErrors.Inc()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Ring buffer: overwrite oldest if at capacity
	if len(t.spans) >= t.maxSpans {
		t.spans = t.spans[1:]
	}
	t.spans = append(t.spans, *span)
}

// Spans returns a copy of the recent spans.
func (t *Tracer) Spans(limit int) []Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.spans) {
		limit = len(t.spans)
	}

	// Return most recent spans
	start := len(t.spans) - limit
	out := make([]Span, limit)
	copy(out, t.spans[start:])
	return out
}

// SpanCount returns the number of recorded spans.
func (t *Tracer) SpanCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// Reset clears all recorded spans.
func (t *Tracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = t.spans[:0]
}

// ─── Context Helpers ────────────────────────────────────────────────────────

type contextKey string

const (
	traceIDKey contextKey = "mlengine-trace-id"
	spanIDKey  contextKey = "mlengine-span-id"
)

// WithTraceID returns a context with the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// WithSpanID returns a context with the given span ID.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey, spanID)
}

func traceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return generateID()
}

func spanIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(spanIDKey).(string); ok {
		return v
	}
	return ""
}

// generateID creates a short unique ID (not cryptographically secure — fine for tracing).
var spanCounter atomic.Int64

func generateID() string {
	n := spanCounter.Add(1)
	return fmt.Sprintf("%s-%d", time.Now().Format("20060102150405"), n)
}

// ═══════════════════════════════════════════════════════════════════════════
// Prometheus Metrics
// ═══════════════════════════════════════════════════════════════════════════

// ─── Bake-off Metrics ───────────────────────────────────────────────────────

// CandidatesTrained tracks completed candidate training attempts by outcome.
var CandidatesTrained = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mlengine",
	Subsystem: "bakeoff",
	Name:      "candidates_trained_total",
	Help:      "Total bake-off candidates trained, by algorithm and outcome.",
}, []string{"algorithm", "outcome"})

// TrainingDuration tracks how long one candidate's training took.
var TrainingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "mlengine",
	Subsystem: "bakeoff",
	Name:      "training_duration_seconds",
	Help:      "Wall-clock time to train one candidate.",
	Buckets:   prometheus.DefBuckets,
}, []string{"algorithm"})

// ChampionPRAUC tracks the selected champion's PR-AUC for the most recent
// bake-off run.
var ChampionPRAUC = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mlengine",
	Subsystem: "bakeoff",
	Name:      "champion_pr_auc",
	Help:      "PR-AUC of the most recently selected champion model.",
})

// BakeoffRunsTotal tracks completed bake-off runs by terminal state.
var BakeoffRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mlengine",
	Subsystem: "bakeoff",
	Name:      "runs_total",
	Help:      "Total bake-off runs, by terminal lifecycle state.",
}, []string{"state"})

// ─── Scoring Metrics ────────────────────────────────────────────────────────

// ScoringRowsProcessed tracks total dataset rows scored.
var ScoringRowsProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mlengine",
	Subsystem: "scoring",
	Name:      "rows_processed_total",
	Help:      "Total rows processed across all scoring runs.",
})

// ScoringRowsFlagged tracks total rows flagged for review.
var ScoringRowsFlagged = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mlengine",
	Subsystem: "scoring",
	Name:      "rows_flagged_total",
	Help:      "Total rows flagged for review across all scoring runs.",
})

// ScoringDuration tracks how long one scoring run took end to end.
var ScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "mlengine",
	Subsystem: "scoring",
	Name:      "run_duration_seconds",
	Help:      "Wall-clock time for one scoring run.",
	Buckets:   prometheus.DefBuckets,
})

// ScoringRunsTotal tracks completed scoring runs by terminal state.
var ScoringRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mlengine",
	Subsystem: "scoring",
	Name:      "runs_total",
	Help:      "Total scoring runs, by terminal lifecycle state.",
}, []string{"state"})

// ─── Trace Metrics ──────────────────────────────────────────────────────────

// TracesRecorded tracks total spans recorded.
var TracesRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mlengine",
	Subsystem: "traces",
	Name:      "spans_recorded_total",
	Help:      "Total trace spans recorded.",
})

// TraceErrors tracks error spans.
var TraceErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mlengine",
	Subsystem: "traces",
	Name:      "error_spans_total",
	Help:      "Total trace spans with error status.",
})
