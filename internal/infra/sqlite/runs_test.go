package sqlite

import (
	"errors"
	"testing"

	"github.com/finshield/mlengine/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_TablesExist(t *testing.T) {
	db := newTestDB(t)
	tables := []string{"bakeoff_runs", "bakeoff_candidates", "scoring_runs"}
	for _, tbl := range tables {
		var name string
		err := db.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, tbl).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", tbl, err)
		}
	}
}

func TestCreateBakeoffRun_IdempotentResend(t *testing.T) {
	db := newTestDB(t)
	if err := db.CreateBakeoffRun("run-1", "isAnomaly", 0.02); err != nil {
		t.Fatalf("CreateBakeoffRun() error = %v", err)
	}
	if err := db.CreateBakeoffRun("run-1", "isAnomaly", 0.02); err != nil {
		t.Fatalf("resending identical CreateBakeoffRun() error = %v", err)
	}
	state, err := db.BakeoffRunState("run-1")
	if err != nil {
		t.Fatalf("BakeoffRunState() error = %v", err)
	}
	if state != domain.BakeoffQueued {
		t.Errorf("state = %s, want %s", state, domain.BakeoffQueued)
	}
}

func TestCreateBakeoffRun_ConflictingParamsRejected(t *testing.T) {
	db := newTestDB(t)
	if err := db.CreateBakeoffRun("run-1", "isAnomaly", 0.02); err != nil {
		t.Fatalf("CreateBakeoffRun() error = %v", err)
	}
	err := db.CreateBakeoffRun("run-1", "isAnomaly", 0.05)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("err = %v, want wrapping ErrInvalidTransition", err)
	}
}

func TestTransitionBakeoffRun_FollowsLifecycle(t *testing.T) {
	db := newTestDB(t)
	db.CreateBakeoffRun("run-1", "isAnomaly", 0.02)

	if err := db.TransitionBakeoffRun("run-1", domain.BakeoffRunning, nil, ""); err != nil {
		t.Fatalf("queued->running: %v", err)
	}
	champion := 2
	if err := db.TransitionBakeoffRun("run-1", domain.BakeoffCompleted, &champion, ""); err != nil {
		t.Fatalf("running->completed: %v", err)
	}
	state, _ := db.BakeoffRunState("run-1")
	if state != domain.BakeoffCompleted {
		t.Errorf("state = %s, want completed", state)
	}
}

func TestTransitionBakeoffRun_RejectsSkippedState(t *testing.T) {
	db := newTestDB(t)
	db.CreateBakeoffRun("run-1", "isAnomaly", 0.02)

	err := db.TransitionBakeoffRun("run-1", domain.BakeoffCompleted, nil, "")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition (queued cannot jump to completed)", err)
	}
}

func TestTransitionBakeoffRun_ResendingSameStateIsNoop(t *testing.T) {
	db := newTestDB(t)
	db.CreateBakeoffRun("run-1", "isAnomaly", 0.02)
	db.TransitionBakeoffRun("run-1", domain.BakeoffRunning, nil, "")

	if err := db.TransitionBakeoffRun("run-1", domain.BakeoffRunning, nil, ""); err != nil {
		t.Errorf("resending current state should resync, got error: %v", err)
	}
}

func TestUpsertCandidate_RoundTripsArtifact(t *testing.T) {
	db := newTestDB(t)
	db.CreateBakeoffRun("run-1", "isAnomaly", 0.02)

	result := domain.CandidateResult{
		Algorithm:     domain.AlgoLogReg,
		Hyperparams:   map[string]float64{"epochs": 200},
		Metrics:       domain.MetricsResult{PRAUC: 0.8},
		Importance:    map[string]float64{"amount": 1.0},
		ArtifactBytes: []byte(`{"algorithm":"log_reg"}`),
	}
	if err := db.UpsertCandidate("run-1", 0, result); err != nil {
		t.Fatalf("UpsertCandidate() error = %v", err)
	}

	got, err := db.CandidateArtifact("run-1", 0)
	if err != nil {
		t.Fatalf("CandidateArtifact() error = %v", err)
	}
	if string(got) != string(result.ArtifactBytes) {
		t.Errorf("CandidateArtifact() = %s, want %s", got, result.ArtifactBytes)
	}
}

func TestUpsertCandidate_OverwritesOnResend(t *testing.T) {
	db := newTestDB(t)
	db.CreateBakeoffRun("run-1", "isAnomaly", 0.02)

	first := domain.CandidateResult{Algorithm: domain.AlgoLogReg, ArtifactBytes: []byte("v1")}
	second := domain.CandidateResult{Algorithm: domain.AlgoLogReg, ArtifactBytes: []byte("v2")}
	db.UpsertCandidate("run-1", 0, first)
	db.UpsertCandidate("run-1", 0, second)

	got, _ := db.CandidateArtifact("run-1", 0)
	if string(got) != "v2" {
		t.Errorf("CandidateArtifact() = %s, want v2", got)
	}
}

func TestCandidateArtifact_MissingReturnsNil(t *testing.T) {
	db := newTestDB(t)
	got, err := db.CandidateArtifact("nonexistent", 0)
	if err != nil {
		t.Fatalf("CandidateArtifact() error = %v", err)
	}
	if got != nil {
		t.Errorf("CandidateArtifact() = %v, want nil", got)
	}
}

func TestScoringRun_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	if err := db.CreateScoringRun("score-1", "run-1", 0.02); err != nil {
		t.Fatalf("CreateScoringRun() error = %v", err)
	}
	if err := db.TransitionScoringRun("score-1", domain.ScoringValidated, nil, ""); err != nil {
		t.Fatalf("created->validated: %v", err)
	}
	if err := db.TransitionScoringRun("score-1", domain.ScoringScoring, nil, ""); err != nil {
		t.Fatalf("validated->scoring: %v", err)
	}
	summary := &domain.ScoringSummary{FlaggedCount: 5, RowCount: 200, ThresholdUsed: 0.7}
	if err := db.TransitionScoringRun("score-1", domain.ScoringScored, summary, ""); err != nil {
		t.Fatalf("scoring->scored: %v", err)
	}
	state, err := db.ScoringRunState("score-1")
	if err != nil {
		t.Fatalf("ScoringRunState() error = %v", err)
	}
	if state != domain.ScoringScored {
		t.Errorf("state = %s, want scored", state)
	}
}

func TestScoringRun_ScoredIsImmutable(t *testing.T) {
	db := newTestDB(t)
	db.CreateScoringRun("score-1", "run-1", 0.02)
	db.TransitionScoringRun("score-1", domain.ScoringValidated, nil, "")
	db.TransitionScoringRun("score-1", domain.ScoringScoring, nil, "")
	summary := &domain.ScoringSummary{FlaggedCount: 5, RowCount: 200}
	db.TransitionScoringRun("score-1", domain.ScoringScored, summary, "")

	err := db.TransitionScoringRun("score-1", domain.ScoringScored, summary, "")
	if !errors.Is(err, domain.ErrRunAlreadyScored) {
		t.Errorf("err = %v, want ErrRunAlreadyScored", err)
	}
}
