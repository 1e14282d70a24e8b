package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
objective: f1
extra_objectives: [accuracy, auc]
random_state: 42
target_column: label
components:
  - type: simple_imputer
    impute_strategy: median
  - type: standard_scaler
  - type: logistic_regression
    max_iter: 2000
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "f1", cfg.Objective)
	assert.Equal(t, []string{"accuracy", "auc"}, cfg.ExtraObjectives)
	assert.Equal(t, int64(42), cfg.RandomState)
	assert.Equal(t, "label", cfg.TargetColumn)
	assert.Equal(t, 0.2, cfg.HoldoutFraction)
	require.Len(t, cfg.Components, 3)
	assert.Equal(t, "median", cfg.Components[0].ImputeStrategy)
}

func TestParseConfigValidation(t *testing.T) {
	_, err := ParseConfig([]byte("components:\n  - type: standard_scaler\n"))
	require.Error(t, err)

	_, err = ParseConfig([]byte("objective: f1\n"))
	require.Error(t, err)

	_, err = ParseConfig([]byte("objective: [not, a, string"))
	require.Error(t, err)
}

func TestBuildPipelineFromConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	p, err := cfg.BuildPipeline()
	require.NoError(t, err)
	assert.Equal(t, "Logistic Regression w/ Simple Imputer + Standard Scaler", p.Name())
	assert.Equal(t, "F1", p.Objective().Name())

	extras, err := cfg.ExtraObjectiveList()
	require.NoError(t, err)
	require.Len(t, extras, 2)
	assert.Equal(t, "Accuracy", extras[0].Name())
	assert.Equal(t, "AUC", extras[1].Name())
}

func TestBuildPipelineUnknownComponent(t *testing.T) {
	cfg, err := ParseConfig([]byte("objective: f1\ncomponents:\n  - type: nonsense\n"))
	require.NoError(t, err)

	_, err = cfg.BuildPipeline()
	require.Error(t, err)
}

func TestBuildPipelineUnknownObjective(t *testing.T) {
	cfg, err := ParseConfig([]byte("objective: nonsense\ncomponents:\n  - type: logistic_regression\n"))
	require.NoError(t, err)

	_, err = cfg.BuildPipeline()
	require.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	csv := "age,income,label\n25,50000,0\n40,,1\n31,72000,0\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	dataset, err := LoadCSV(path, "label")
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "income"}, dataset.FeatureNames)

	r, c := dataset.X.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 25.0, dataset.X.At(0, 0))
	assert.True(t, math.IsNaN(dataset.X.At(1, 1)), "empty cell becomes NaN")
	assert.Equal(t, 1.0, dataset.Y.At(1, 0))
}

func TestLoadCSVMissingTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	_, err := LoadCSV(path, "label")
	require.Error(t, err)
}

func TestLoadCSVNonNumericCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,label\noops,1\n"), 0o644))

	_, err := LoadCSV(path, "label")
	require.Error(t, err)
}
