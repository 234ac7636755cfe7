package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/scoring"
	"github.com/finshield/mlengine/internal/infra/sqlite"
)

var (
	scoreDataset  string
	scoreSchema   string
	scoreArtifact string
	scoreOut      string
	scoreBakeoff  string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a dataset against a trained artifact and emit findings",
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreDataset, "dataset", "", "path to the CSV dataset to score (required)")
	scoreCmd.Flags().StringVar(&scoreSchema, "schema", "", "path to a JSON column-name -> type schema file (required)")
	scoreCmd.Flags().StringVar(&scoreArtifact, "artifact", "", "path to a serialized model artifact JSON file (required)")
	scoreCmd.Flags().StringVar(&scoreOut, "out", "scored.csv", "path to write the scored dataset")
	scoreCmd.Flags().StringVar(&scoreBakeoff, "bakeoff-run", "", "bake-off run id this artifact came from, recorded against the scoring run")
	scoreCmd.MarkFlagRequired("dataset")
	scoreCmd.MarkFlagRequired("schema")
	scoreCmd.MarkFlagRequired("artifact")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	rows, headers, err := readCSV(scoreDataset)
	if err != nil {
		return err
	}
	schema, err := readSchema(scoreSchema)
	if err != nil {
		return err
	}
	artifactBytes, err := os.ReadFile(scoreArtifact)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", scoreArtifact, err)
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	defer db.Close()

	runID := uuid.NewString()
	if err := db.CreateScoringRun(runID, scoreBakeoff, cfg.Scoring.ReviewRate); err != nil {
		return fmt.Errorf("create scoring run: %w", err)
	}
	if err := db.TransitionScoringRun(runID, domain.ScoringValidated, nil, ""); err != nil {
		return fmt.Errorf("validate scoring run: %w", err)
	}
	if err := db.TransitionScoringRun(runID, domain.ScoringScoring, nil, ""); err != nil {
		return fmt.Errorf("start scoring run: %w", err)
	}

	result, err := scoring.Run(rows, headers, artifactBytes, scoring.Options{
		Schema:      schema,
		ReviewRate:  cfg.Scoring.ReviewRate,
		TopN:        cfg.Scoring.TopN,
		WireIDField: cfg.Scoring.WireIDField,
		Cache:       modelCache,
		Tracer:      tracer,
	})
	if err != nil {
		db.TransitionScoringRun(runID, domain.ScoringFailed, nil, err.Error())
		return fmt.Errorf("run scoring: %w", err)
	}

	if err := os.WriteFile(scoreOut, result.ScoredCSV, 0o644); err != nil {
		return fmt.Errorf("write scored output %s: %w", scoreOut, err)
	}

	summary := result.Summary
	if err := db.TransitionScoringRun(runID, domain.ScoringScored, &summary, ""); err != nil {
		return fmt.Errorf("complete scoring run: %w", err)
	}

	report, err := json.MarshalIndent(struct {
		RunID    string                `json:"runId"`
		Summary  domain.ScoringSummary `json:"summary"`
		Findings []domain.Finding      `json:"findings"`
	}{RunID: runID, Summary: summary, Findings: result.Findings}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	fmt.Println(string(report))
	fmt.Printf("scored dataset written to %s\n", scoreOut)
	return nil
}
