// Package config loads the engine's TOML configuration file: rubric
// weights and constraints, per-algorithm hyperparameter defaults, and the
// bake-off/scoring run defaults the CLI falls back to when a flag is
// omitted.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/finshield/mlengine/internal/domain"
)

// AlgorithmDefaults holds the default hyperparameters for one algorithm,
// keyed the same way algorithms.Train expects.
type AlgorithmDefaults map[string]float64

// Config is the full, TOML-decoded engine configuration.
type Config struct {
	Rubric     domain.RubricConfig          `toml:"rubric"`
	Algorithms map[string]AlgorithmDefaults `toml:"algorithms"`
	Bakeoff    BakeoffDefaults              `toml:"bakeoff"`
	Scoring    ScoringDefaults              `toml:"scoring"`
}

// BakeoffDefaults are the bake-off run settings the CLI uses absent an
// explicit flag.
type BakeoffDefaults struct {
	ReviewRate        float64 `toml:"review_rate"`
	Seed              uint64  `toml:"seed"`
	ImportanceRepeats int     `toml:"importance_repeats"`
}

// ScoringDefaults are the scoring run settings the CLI uses absent an
// explicit flag.
type ScoringDefaults struct {
	ReviewRate  float64 `toml:"review_rate"`
	TopN        int     `toml:"top_n"`
	WireIDField string  `toml:"wire_id_field"`
}

// DefaultConfig matches the documented defaults: the rubric's §6 weights,
// one reasonable hyperparameter set per algorithm, a 2% bake-off review
// rate, and a 200-row scoring explain cap.
func DefaultConfig() Config {
	return Config{
		Rubric: domain.DefaultRubricConfig(),
		Algorithms: map[string]AlgorithmDefaults{
			string(domain.AlgoLogReg): {
				"epochs":       200,
				"learningRate": 0.01,
				"c":            1.0,
			},
			string(domain.AlgoDecisionTree): {
				"maxDepth":        8,
				"minSamplesSplit": 5,
				"minSamplesLeaf":  2,
			},
			string(domain.AlgoExtraTree): {
				"maxDepth":        8,
				"minSamplesSplit": 5,
				"minSamplesLeaf":  2,
			},
			string(domain.AlgoRandomForest): {
				"nEstimators":     20,
				"maxDepth":        10,
				"minSamplesSplit": 5,
				"minSamplesLeaf":  2,
			},
			string(domain.AlgoExtraTrees): {
				"nEstimators":     20,
				"maxDepth":        10,
				"minSamplesSplit": 5,
				"minSamplesLeaf":  2,
			},
			string(domain.AlgoGBT): {
				"nEstimators":  50,
				"learningRate": 0.1,
			},
		},
		Bakeoff: BakeoffDefaults{
			ReviewRate:        0.02,
			Seed:              1,
			ImportanceRepeats: 3,
		},
		Scoring: ScoringDefaults{
			ReviewRate:  0.02,
			TopN:        200,
			WireIDField: "",
		},
	}
}

// Load reads and decodes a TOML config file at path, starting from
// DefaultConfig so a file that only overrides a few fields still produces
// a complete configuration.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// HyperparamsFor returns the configured defaults for algo, or an empty map
// (letting each algorithm's own built-in defaults apply) if unconfigured.
func (c Config) HyperparamsFor(algo domain.Algorithm) map[string]float64 {
	if hp, ok := c.Algorithms[string(algo)]; ok {
		return hp
	}
	return map[string]float64{}
}
