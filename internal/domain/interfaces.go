package domain

import "context"

// ─── External Collaborator Interfaces ──────────────────────────────────────
// These interfaces define the boundary between the core ML engine and the
// systems explicitly out of scope for this module: persistent storage,
// blob storage, and CSV/XLSX parsing. No package in this module implements
// or calls DatasetSource or BlobStore; the CLI reads local files directly.

// DatasetSource abstracts reading raw dataset rows already parsed into
// string maps by an external CSV/XLSX collaborator. The engine never
// parses bytes itself.
type DatasetSource interface {
	Headers() []string
	Rows() []map[string]string
}

// BlobStore abstracts byte-level read/write of dataset and artifact blobs
// by opaque URL. Persistence of the bytes themselves is out of scope.
type BlobStore interface {
	Get(ctx context.Context, url string) ([]byte, error)
	Put(ctx context.Context, url string, data []byte) (string, error)
}

// ProgressSink receives Progress events emitted by a running bake-off.
// The core never blocks on the sink; a full channel drops the oldest
// unread event rather than stalling training.
type ProgressSink interface {
	Report(p Progress)
}

// Progress describes bake-off candidate-loop progress (§9 "coroutine-style
// progress").
type Progress struct {
	Done             int
	Total            int
	CurrentAlgorithm Algorithm
}

// ProgressFunc adapts a plain function to ProgressSink.
type ProgressFunc func(Progress)

func (f ProgressFunc) Report(p Progress) { f(p) }

// ─── Run Lifecycle (§4.12 state machines) ──────────────────────────────────

// BakeoffState is the bake-off run lifecycle: queued -> running -> (completed|failed).
type BakeoffState string

const (
	BakeoffQueued    BakeoffState = "queued"
	BakeoffRunning   BakeoffState = "running"
	BakeoffCompleted BakeoffState = "completed"
	BakeoffFailed    BakeoffState = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s BakeoffState) Terminal() bool {
	return s == BakeoffCompleted || s == BakeoffFailed
}

// ScoringRunState is the scoring-run lifecycle:
// created -> validated -> scoring -> (scored|failed).
type ScoringRunState string

const (
	ScoringCreated   ScoringRunState = "created"
	ScoringValidated ScoringRunState = "validated"
	ScoringScoring   ScoringRunState = "scoring"
	ScoringScored    ScoringRunState = "scored"
	ScoringFailed    ScoringRunState = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s ScoringRunState) Terminal() bool {
	return s == ScoringScored || s == ScoringFailed
}
