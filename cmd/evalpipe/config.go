package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evalpipe/evalpipe/components"
	"github.com/evalpipe/evalpipe/objectives"
	"github.com/evalpipe/evalpipe/pipeline"
	"github.com/evalpipe/evalpipe/pkg/errors"
)

// Config describes a pipeline in YAML form.
type Config struct {
	Objective       string          `yaml:"objective"`
	ExtraObjectives []string        `yaml:"extra_objectives"`
	HoldoutFraction float64         `yaml:"holdout_fraction"`
	RandomState     int64           `yaml:"random_state"`
	TargetColumn    string          `yaml:"target_column"`
	Components      []ComponentSpec `yaml:"components"`
}

// ComponentSpec selects one built-in component and its parameters.
type ComponentSpec struct {
	Type           string  `yaml:"type"`
	ImputeStrategy string  `yaml:"impute_strategy"`
	K              int     `yaml:"k"`
	MaxIter        int     `yaml:"max_iter"`
	C              float64 `yaml:"c"`
}

// LoadConfig reads and parses a pipeline config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config bytes and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{
		HoldoutFraction: pipeline.DefaultHoldoutFraction,
		TargetColumn:    "target",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if cfg.Objective == "" {
		return nil, errors.NewValidationError("objective", "config must name an objective", nil)
	}
	if len(cfg.Components) == 0 {
		return nil, errors.NewValidationError("components", "config must list at least one component", nil)
	}
	return cfg, nil
}

// BuildPipeline constructs the configured pipeline.
func (c *Config) BuildPipeline() (*pipeline.Pipeline, error) {
	objective, err := objectives.Get(c.Objective)
	if err != nil {
		return nil, err
	}

	stages := make([]components.Stage, 0, len(c.Components))
	for _, spec := range c.Components {
		stage, err := spec.Build()
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}

	return pipeline.New(objective, stages,
		pipeline.WithHoldoutFraction(c.HoldoutFraction),
		pipeline.WithRandomState(c.RandomState),
	)
}

// Build constructs the component named by Type.
func (s *ComponentSpec) Build() (components.Stage, error) {
	switch s.Type {
	case "simple_imputer":
		var opts []components.ImputerOption
		if s.ImputeStrategy != "" {
			opts = append(opts, components.WithStrategy(components.ImputeStrategy(s.ImputeStrategy)))
		}
		return components.SimpleImputerComponent(opts...), nil
	case "standard_scaler":
		return components.StandardScalerComponent(), nil
	case "select_k_best":
		k := s.K
		if k == 0 {
			k = 10
		}
		return components.SelectKBestComponent(k), nil
	case "logistic_regression":
		var opts []components.LogisticOption
		if s.MaxIter > 0 {
			opts = append(opts, components.WithMaxIter(s.MaxIter))
		}
		if s.C > 0 {
			opts = append(opts, components.WithC(s.C))
		}
		return components.LogisticRegressionEstimator(opts...), nil
	case "linear_regression":
		return components.LinearRegressionEstimator(), nil
	default:
		return nil, errors.NewValidationError("type", "unknown component type", s.Type)
	}
}

// ExtraObjectiveList resolves the configured extra objectives by name.
func (c *Config) ExtraObjectiveList() ([]objectives.Objective, error) {
	extras := make([]objectives.Objective, 0, len(c.ExtraObjectives))
	for _, name := range c.ExtraObjectives {
		obj, err := objectives.Get(name)
		if err != nil {
			return nil, err
		}
		extras = append(extras, obj)
	}
	return extras, nil
}
