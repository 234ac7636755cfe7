package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/finshield/mlengine/internal/app/bakeoff"
	"github.com/finshield/mlengine/internal/domain"
	"github.com/finshield/mlengine/internal/infra/sqlite"
)

var (
	bakeoffDataset     string
	bakeoffSchema      string
	bakeoffLabelColumn string
	bakeoffAlgorithms  []string
)

var bakeoffCmd = &cobra.Command{
	Use:   "bakeoff",
	Short: "Train and rank candidate models over a labeled dataset",
	RunE:  runBakeoff,
}

func init() {
	bakeoffCmd.Flags().StringVar(&bakeoffDataset, "dataset", "", "path to the labeled training CSV (required)")
	bakeoffCmd.Flags().StringVar(&bakeoffSchema, "schema", "", "path to a JSON column-name -> type schema file (required)")
	bakeoffCmd.Flags().StringVar(&bakeoffLabelColumn, "label-column", "label", "header of the binary label column")
	bakeoffCmd.Flags().StringSliceVar(&bakeoffAlgorithms, "algorithms", nil, "algorithms to include (defaults to every configured algorithm)")
	bakeoffCmd.MarkFlagRequired("dataset")
	bakeoffCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(bakeoffCmd)
}

func runBakeoff(cmd *cobra.Command, args []string) error {
	rows, _, err := readCSV(bakeoffDataset)
	if err != nil {
		return err
	}
	schema, err := readSchema(bakeoffSchema)
	if err != nil {
		return err
	}

	candidates, err := buildCandidates(bakeoffAlgorithms)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	defer db.Close()

	runID := uuid.NewString()
	if err := db.CreateBakeoffRun(runID, bakeoffLabelColumn, cfg.Bakeoff.ReviewRate); err != nil {
		return fmt.Errorf("create bakeoff run: %w", err)
	}
	if err := db.TransitionBakeoffRun(runID, domain.BakeoffRunning, nil, ""); err != nil {
		return fmt.Errorf("start bakeoff run: %w", err)
	}

	sink := bakeoff.NewChannelSink(len(candidates))
	go func() {
		for p := range sink.Events() {
			fmt.Printf("[%s] %d/%d (%s)\n", runID, p.Done, p.Total, p.CurrentAlgorithm)
		}
	}()

	result, err := bakeoff.Run(rows, schema, bakeoffLabelColumn, bakeoff.Config{
		Candidates:        candidates,
		RubricConfig:      cfg.Rubric,
		ReviewRate:        cfg.Bakeoff.ReviewRate,
		Seed:              cfg.Bakeoff.Seed,
		ImportanceRepeats: cfg.Bakeoff.ImportanceRepeats,
		Tracer:            tracer,
	}, sink)
	if err != nil {
		db.TransitionBakeoffRun(runID, domain.BakeoffFailed, nil, err.Error())
		return fmt.Errorf("run bakeoff: %w", err)
	}

	for i, c := range result.Candidates {
		if upsertErr := db.UpsertCandidate(runID, i, c); upsertErr != nil {
			return fmt.Errorf("persist candidate %d: %w", i, upsertErr)
		}
	}
	championIdx := result.ChampionIndex
	if err := db.TransitionBakeoffRun(runID, domain.BakeoffCompleted, &championIdx, ""); err != nil {
		return fmt.Errorf("complete bakeoff run: %w", err)
	}

	fmt.Println(result.Report)
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func buildCandidates(algos []string) ([]bakeoff.Candidate, error) {
	names := algos
	if len(names) == 0 {
		for name := range cfg.Algorithms {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no algorithms configured or requested")
	}

	candidates := make([]bakeoff.Candidate, 0, len(names))
	for _, name := range names {
		algo := domain.Algorithm(name)
		candidates = append(candidates, bakeoff.Candidate{
			Algorithm:   algo,
			Hyperparams: cfg.HyperparamsFor(algo),
		})
	}
	return candidates, nil
}
