package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/finshield/mlengine/internal/domain"
)

// ─── Schema ─────────────────────────────────────────────────────────────────

// runsMigrations returns the migration statements for bake-off and
// scoring-run persistence. Each string is one statement.
func runsMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS bakeoff_runs (
			id             TEXT PRIMARY KEY,
			state          TEXT NOT NULL,
			label_column   TEXT NOT NULL,
			review_rate    REAL NOT NULL,
			champion_index INTEGER,
			error          TEXT,
			created_at     TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS bakeoff_candidates (
			bakeoff_id      TEXT NOT NULL,
			candidate_index INTEGER NOT NULL,
			algorithm       TEXT NOT NULL,
			hyperparams_json TEXT NOT NULL DEFAULT '{}',
			failed          INTEGER NOT NULL DEFAULT 0,
			failure_reason  TEXT,
			metrics_json    TEXT,
			importance_json TEXT,
			artifact_bytes  BLOB,
			PRIMARY KEY (bakeoff_id, candidate_index)
		)`,
		`CREATE TABLE IF NOT EXISTS scoring_runs (
			id              TEXT PRIMARY KEY,
			bakeoff_id      TEXT,
			state           TEXT NOT NULL,
			review_rate     REAL NOT NULL,
			threshold_used  REAL,
			flagged_count   INTEGER,
			row_count       INTEGER,
			summary_json    TEXT,
			error           TEXT,
			created_at      TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scoring_bakeoff ON scoring_runs(bakeoff_id)`,
	}
}

// ─── Bake-off Run Persistence ───────────────────────────────────────────────

// bakeoffTransitions lists the only allowed (from, to) state pairs. Any
// other requested transition is rejected with domain.ErrInvalidTransition.
var bakeoffTransitions = map[domain.BakeoffState][]domain.BakeoffState{
	domain.BakeoffQueued:    {domain.BakeoffRunning},
	domain.BakeoffRunning:   {domain.BakeoffCompleted, domain.BakeoffFailed},
	domain.BakeoffCompleted: {},
	domain.BakeoffFailed:    {},
}

func allowedTransition(from, to domain.BakeoffState) bool {
	if from == to {
		return true // re-sending the same state is idempotent, not a transition
	}
	for _, next := range bakeoffTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateBakeoffRun inserts a new bake-off run in the "queued" state.
// Re-inserting the same id is idempotent as long as label column and
// review rate are unchanged; inserting with different parameters under an
// existing id is a conflict.
func (db *DB) CreateBakeoffRun(id, labelColumn string, reviewRate float64) error {
	var existingLabel string
	var existingRate float64
	err := db.db.QueryRow(
		`SELECT label_column, review_rate FROM bakeoff_runs WHERE id = ?`, id,
	).Scan(&existingLabel, &existingRate)
	switch {
	case err == sql.ErrNoRows:
		_, err := db.db.Exec(
			`INSERT INTO bakeoff_runs (id, state, label_column, review_rate) VALUES (?, ?, ?, ?)`,
			id, string(domain.BakeoffQueued), labelColumn, reviewRate,
		)
		return err
	case err != nil:
		return err
	case existingLabel != labelColumn || existingRate != reviewRate:
		return fmt.Errorf("sqlite: run %s already exists with different parameters: %w", id, domain.ErrInvalidTransition)
	default:
		return nil // identical resend, nothing to do
	}
}

// TransitionBakeoffRun moves a run to a new state, validating the
// transition against the lifecycle state machine. Re-sending the current
// state is a no-op success (resync semantics); any other disallowed
// transition returns domain.ErrInvalidTransition.
func (db *DB) TransitionBakeoffRun(id string, to domain.BakeoffState, championIdx *int, runErr string) error {
	current, err := db.bakeoffState(id)
	if err != nil {
		return err
	}
	if !allowedTransition(current, to) {
		return fmt.Errorf("sqlite: run %s: %s -> %s: %w", id, current, to, domain.ErrInvalidTransition)
	}
	_, err = db.db.Exec(
		`UPDATE bakeoff_runs SET state = ?, champion_index = ?, error = ?, updated_at = datetime('now') WHERE id = ?`,
		string(to), championIdx, nullIfEmpty(runErr), id,
	)
	return err
}

func (db *DB) bakeoffState(id string) (domain.BakeoffState, error) {
	var state string
	err := db.db.QueryRow(`SELECT state FROM bakeoff_runs WHERE id = ?`, id).Scan(&state)
	if err != nil {
		return "", fmt.Errorf("sqlite: run %s not found: %w", id, err)
	}
	return domain.BakeoffState(state), nil
}

// BakeoffRunState returns a run's current lifecycle state.
func (db *DB) BakeoffRunState(id string) (domain.BakeoffState, error) {
	return db.bakeoffState(id)
}

// UpsertCandidate records one bake-off candidate's outcome, keyed by
// (bakeoffID, candidateIndex). Re-sending the same candidate overwrites it
// in place — candidates are only ever written once per run in practice,
// but the upsert keeps a retried write safe.
func (db *DB) UpsertCandidate(bakeoffID string, index int, result domain.CandidateResult) error {
	hyperparamsJSON, err := json.Marshal(result.Hyperparams)
	if err != nil {
		return err
	}
	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return err
	}
	importanceJSON, err := json.Marshal(result.Importance)
	if err != nil {
		return err
	}

	_, err = db.db.Exec(`
		INSERT INTO bakeoff_candidates (bakeoff_id, candidate_index, algorithm, hyperparams_json, failed, failure_reason, metrics_json, importance_json, artifact_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bakeoff_id, candidate_index) DO UPDATE SET
			algorithm        = excluded.algorithm,
			hyperparams_json = excluded.hyperparams_json,
			failed           = excluded.failed,
			failure_reason   = excluded.failure_reason,
			metrics_json     = excluded.metrics_json,
			importance_json  = excluded.importance_json,
			artifact_bytes   = excluded.artifact_bytes
	`, bakeoffID, index, string(result.Algorithm), string(hyperparamsJSON), boolToInt(result.Failed), nullIfEmpty(result.FailureReason), string(metricsJSON), string(importanceJSON), result.ArtifactBytes)
	return err
}

// CandidateArtifact returns the serialized artifact bytes for one
// candidate, or nil if the candidate was never recorded.
func (db *DB) CandidateArtifact(bakeoffID string, index int) ([]byte, error) {
	var artifactBytes []byte
	err := db.db.QueryRow(
		`SELECT artifact_bytes FROM bakeoff_candidates WHERE bakeoff_id = ? AND candidate_index = ?`,
		bakeoffID, index,
	).Scan(&artifactBytes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return artifactBytes, err
}

// ─── Scoring Run Persistence ────────────────────────────────────────────────

var scoringTransitions = map[domain.ScoringRunState][]domain.ScoringRunState{
	domain.ScoringCreated:   {domain.ScoringValidated, domain.ScoringFailed},
	domain.ScoringValidated: {domain.ScoringScoring, domain.ScoringFailed},
	domain.ScoringScoring:   {domain.ScoringScored, domain.ScoringFailed},
	domain.ScoringScored:    {},
	domain.ScoringFailed:    {},
}

func allowedScoringTransition(from, to domain.ScoringRunState) bool {
	if from == to {
		return true
	}
	for _, next := range scoringTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateScoringRun inserts a new scoring run in the "created" state.
func (db *DB) CreateScoringRun(id, bakeoffID string, reviewRate float64) error {
	_, err := db.db.Exec(
		`INSERT OR IGNORE INTO scoring_runs (id, bakeoff_id, state, review_rate) VALUES (?, ?, ?, ?)`,
		id, nullIfEmpty(bakeoffID), string(domain.ScoringCreated), reviewRate,
	)
	return err
}

// TransitionScoringRun moves a scoring run forward. Once a run reaches
// "scored" its summary is immutable: any further write attempt, including
// re-sending "scored" with a different summary, is rejected with
// domain.ErrRunAlreadyScored.
func (db *DB) TransitionScoringRun(id string, to domain.ScoringRunState, summary *domain.ScoringSummary, runErr string) error {
	current, err := db.scoringState(id)
	if err != nil {
		return err
	}
	if current == domain.ScoringScored {
		return fmt.Errorf("sqlite: run %s: %w", id, domain.ErrRunAlreadyScored)
	}
	if !allowedScoringTransition(current, to) {
		return fmt.Errorf("sqlite: run %s: %s -> %s: %w", id, current, to, domain.ErrInvalidTransition)
	}

	var summaryJSON []byte
	var thresholdUsed, flaggedCount, rowCount any
	if summary != nil {
		summaryJSON, err = json.Marshal(summary)
		if err != nil {
			return err
		}
		thresholdUsed = summary.ThresholdUsed
		flaggedCount = summary.FlaggedCount
		rowCount = summary.RowCount
	}

	_, err = db.db.Exec(`
		UPDATE scoring_runs SET
			state = ?, summary_json = ?, threshold_used = ?, flagged_count = ?, row_count = ?, error = ?, updated_at = datetime('now')
		WHERE id = ?
	`, string(to), nullIfEmptyBytes(summaryJSON), thresholdUsed, flaggedCount, rowCount, nullIfEmpty(runErr), id)
	return err
}

func (db *DB) scoringState(id string) (domain.ScoringRunState, error) {
	var state string
	err := db.db.QueryRow(`SELECT state FROM scoring_runs WHERE id = ?`, id).Scan(&state)
	if err != nil {
		return "", fmt.Errorf("sqlite: scoring run %s not found: %w", id, err)
	}
	return domain.ScoringRunState(state), nil
}

// ScoringRunState returns a scoring run's current lifecycle state.
func (db *DB) ScoringRunState(id string) (domain.ScoringRunState, error) {
	return db.scoringState(id)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfEmptyBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
