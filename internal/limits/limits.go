// Package limits holds the hard resource limits bounding every pass of
// the pipeline. Exceeding any limit is a fatal error for the whole
// compilation unit: pathological input is treated as hostile, not as a
// recoverable user mistake.
package limits

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Table is the full set of hard limits. The zero value is not usable;
// start from Default.
type Table struct {
	MaxSourceBytes    int `yaml:"max_source_bytes"`
	MaxTokens         int `yaml:"max_tokens"`
	MaxParseDepth     int `yaml:"max_parse_depth"`
	MaxInferDepth     int `yaml:"max_infer_depth"`
	MaxCallDepth      int `yaml:"max_call_depth"`
	MaxEffectVars     int `yaml:"max_effect_vars"`
	MaxSolverIters    int `yaml:"max_solver_iters"`
	MaxPatternCells   int `yaml:"max_pattern_cells"`
	MaxPatternDepth   int `yaml:"max_pattern_depth"`
}

// Default returns the limit table used when no override file is given.
func Default() Table {
	return Table{
		MaxSourceBytes:  1 << 20,
		MaxTokens:       200_000,
		MaxParseDepth:   256,
		MaxInferDepth:   512,
		MaxCallDepth:    1024,
		MaxEffectVars:   10_000,
		MaxSolverIters:  100_000,
		MaxPatternCells: 100_000,
		MaxPatternDepth: 128,
	}
}

// Load reads a YAML override file on top of the defaults. Fields left
// out of the file keep their default values.
func Load(path string) (Table, error) {
	t := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, errors.Wrap(err, "reading limits file")
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, errors.Wrapf(err, "parsing limits file %s", path)
	}
	return t, nil
}
