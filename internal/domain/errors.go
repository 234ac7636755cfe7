package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Call sites wrap
// these with fmt.Errorf("...: %w", ErrX) to attach context.

var (
	// InvalidInput — empty dataset, missing label column, label column
	// lacking one or both classes, zero-column feature matrix, review rate
	// outside (0,1], unknown algorithm tag on deserialize.
	ErrEmptyDataset       = errors.New("dataset has no rows")
	ErrLabelColumnMissing = errors.New("label column not found")
	ErrSingleClass        = errors.New("label column has only one class")
	ErrNoFeatureColumns   = errors.New("feature matrix has zero columns")
	ErrInvalidReviewRate  = errors.New("review rate must be in (0, 1]")
	ErrUnknownAlgorithm   = errors.New("unknown algorithm tag")

	// FeatureAlignment — scoring feature names cannot be mapped to any
	// artifact column. Treated as a warning upstream: missing columns are
	// zero-filled, not a hard failure.
	ErrFeatureAlignment = errors.New("scoring features could not be aligned to artifact columns")

	// TrainingFailure — numeric overflow, degenerate splits exhausted, or a
	// recovered panic inside one algorithm.
	ErrTrainingFailure = errors.New("training failed")

	// ArtifactCorruption — missing required key, malformed tree, wrong
	// algorithm tag. Always fatal.
	ErrArtifactMissingKey = errors.New("artifact missing required key")
	ErrArtifactMalformed  = errors.New("artifact is malformed")
	ErrArtifactWrongTag   = errors.New("artifact algorithm tag mismatch")

	// Run lifecycle errors (§4.12 state machines).
	ErrInvalidTransition = errors.New("invalid run state transition")
	ErrRunAlreadyScored  = errors.New("scoring run already scored; summary is immutable")
)
