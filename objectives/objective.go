// Package objectives provides named scoring objectives for pipelines.
//
// An objective selects one metric function and carries the evaluation flags
// the pipeline needs to route data correctly: whether the score wants
// probabilities or labels, whether the objective needs its own fitting pass
// on held-out data, whether it reads extra input columns, and whether higher
// scores are better. Standard objectives are pure dispatch wrappers around
// the metrics package; fittable objectives additionally tune a decision
// threshold.
package objectives

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/pkg/errors"
)

// Objective is a named scoring function with evaluation flags.
type Objective interface {
	// Name returns the human-readable objective name.
	Name() string

	// GreaterIsBetter reports whether larger scores are better.
	GreaterIsBetter() bool

	// ScoreNeedsProba reports whether Score expects probability estimates
	// rather than labels as the predicted input.
	ScoreNeedsProba() bool

	// NeedsFitting reports whether the objective requires its own fitting
	// pass on held-out data before it can post-process predictions.
	NeedsFitting() bool

	// UsesExtraColumns reports whether the objective reads additional input
	// columns (beyond predictions and true labels) when fitting or scoring.
	UsesExtraColumns() bool

	// Score computes the objective value from predictions and true labels.
	// extras carries the original feature matrix for objectives that use
	// extra columns and is nil otherwise.
	Score(yPredicted, yTrue *mat.VecDense, extras mat.Matrix) (float64, error)
}

// Fittable is implemented by objectives that need their own fitting pass.
// The pipeline fits them on a held-out split and routes predictions through
// Predict afterwards.
type Fittable interface {
	Objective

	// FitNeedsProba reports whether Fit expects probability estimates.
	FitNeedsProba() bool

	// Fit tunes the objective on held-out predictions and true labels.
	Fit(yPredicted, yTrue *mat.VecDense, extras mat.Matrix) error

	// Predict post-processes raw predictions into final outputs.
	Predict(yPredicted *mat.VecDense, extras mat.Matrix) (*mat.VecDense, error)
}

// flags holds the constant evaluation flags shared by all objectives.
type flags struct {
	name             string
	greaterIsBetter  bool
	scoreNeedsProba  bool
	needsFitting     bool
	usesExtraColumns bool
}

func (f flags) Name() string           { return f.name }
func (f flags) GreaterIsBetter() bool  { return f.greaterIsBetter }
func (f flags) ScoreNeedsProba() bool  { return f.scoreNeedsProba }
func (f flags) NeedsFitting() bool     { return f.needsFitting }
func (f flags) UsesExtraColumns() bool { return f.usesExtraColumns }

// metricObjective dispatches to one fixed metric function.
type metricObjective struct {
	flags
	score func(yTrue, yPred *mat.VecDense) (float64, error)
}

func (o *metricObjective) Score(yPredicted, yTrue *mat.VecDense, _ mat.Matrix) (float64, error) {
	return o.score(yTrue, yPredicted)
}

// ===========================================================================
//
//	Registry
//
// ===========================================================================

var registry = map[string]func() Objective{
	"f1":        NewF1,
	"precision": NewPrecision,
	"recall":    NewRecall,
	"accuracy":  NewAccuracy,
	"auc":       NewAUC,
	"log_loss":  NewLogLoss,
	"mcc":       NewMCC,
	"r2":        NewR2,
	"mse":       NewMSE,
	"mae":       NewMAE,
}

func canonical(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Get returns a fresh objective by name. Lookup is case-insensitive and
// treats spaces and underscores the same.
func Get(name string) (Objective, error) {
	factory, ok := registry[canonical(name)]
	if !ok {
		return nil, errors.NewValidationError("objective", "unknown objective name", name)
	}
	return factory(), nil
}

// MustGet is like Get but panics on unknown names. Intended for
// package-level variables and examples.
func MustGet(name string) Objective {
	o, err := Get(name)
	if err != nil {
		panic(err)
	}
	return o
}

// Names returns the registered objective names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
