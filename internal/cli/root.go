// Package cli wires the engine's bake-off and scoring pipelines up as a
// cobra command-line tool.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finshield/mlengine/internal/config"
	"github.com/finshield/mlengine/internal/infra/artifactcache"
	"github.com/finshield/mlengine/internal/infra/observability"
)

var (
	configPath string
	dbPath     string
	cfg        config.Config
	tracer     = observability.NewTracer(observability.DefaultTracerConfig())
	modelCache = artifactcache.New()
)

var rootCmd = &cobra.Command{
	Use:   "mlengine",
	Short: "Train, evaluate, and score wire-transfer anomaly detection models",
	Long: `mlengine runs a deterministic bake-off across several binary
classification algorithms over a labeled wire-transfer dataset, selects a
champion by a weighted rubric, and scores fresh datasets against a trained
artifact with SHAP-style explanations and reason codes.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			cfg = config.DefaultConfig()
			return nil
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (defaults built in if omitted)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "mlengine.db", "path to the SQLite run-lifecycle database")
}

// Execute runs the root command. It is the CLI's sole entry point.
func Execute() error {
	return rootCmd.Execute()
}
