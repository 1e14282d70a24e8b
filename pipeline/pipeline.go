// Package pipeline provides the machine learning pipeline base: an ordered
// sequence of components ending in an estimator, an objective to optimize,
// and the fit/predict/score flows that chain them together.
//
// Pipelines are immutable after construction. Fitting threads the training
// data through every transformer, fits the estimator on the result, and,
// when the objective needs its own fitting pass, tunes the objective on a
// held-out split. Prediction replays the transform chain; scoring reuses
// cached predictions across objectives.
package pipeline

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/components"
	"github.com/evalpipe/evalpipe/core/model"
	"github.com/evalpipe/evalpipe/objectives"
	"github.com/evalpipe/evalpipe/pkg/errors"
	"github.com/evalpipe/evalpipe/pkg/log"
)

// DefaultHoldoutFraction is the share of training data held out to fit the
// objective when it needs its own fitting pass.
const DefaultHoldoutFraction = 0.2

var globalProvider log.LoggerProvider

// SetLoggerProvider sets the logger provider used by newly created
// pipelines. Tests use it to capture Describe output.
func SetLoggerProvider(p log.LoggerProvider) {
	globalProvider = p
}

func loggerFor(name string) log.Logger {
	if globalProvider == nil {
		globalProvider = log.NewZerologProvider(log.LevelInfo)
	}
	return globalProvider.GetLoggerWithName(name)
}

// ObjectiveScore is a named score produced by Score for each additional
// objective, in the order requested.
type ObjectiveScore struct {
	Name  string
	Score float64
}

// FeatureImportance pairs a feature name with its importance value.
type FeatureImportance struct {
	Feature    string
	Importance float64
}

// Pipeline is a machine learning pipeline made out of transformers and an
// estimator.
type Pipeline struct {
	name      string
	objective objectives.Objective
	stages    []components.Stage
	estimator *components.Estimator

	parameters        map[string]interface{}
	inputFeatureNames map[string][]string
	featureNames      []string

	holdoutFraction float64
	randomState     int64

	state  *model.StateManager
	logger log.Logger
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithRandomState sets the random seed used for the objective holdout
// split.
func WithRandomState(seed int64) Option {
	return func(p *Pipeline) {
		p.randomState = seed
	}
}

// WithHoldoutFraction sets the share of training data held out to fit the
// objective.
func WithHoldoutFraction(fraction float64) Option {
	return func(p *Pipeline) {
		p.holdoutFraction = fraction
	}
}

// WithFeatureNames sets the names of the input features. Defaults to
// feature_0 .. feature_{d-1}.
func WithFeatureNames(names []string) Option {
	return func(p *Pipeline) {
		p.featureNames = append([]string(nil), names...)
	}
}

// New creates a pipeline from an objective and an ordered list of stages.
// The last stage must be an estimator and no other stage may be one; this
// is checked once here since stages cannot be mutated afterwards.
func New(objective objectives.Objective, stages []components.Stage, opts ...Option) (*Pipeline, error) {
	if objective == nil {
		return nil, errors.NewValidationError("objective", "objective must not be nil", nil)
	}
	if len(stages) == 0 {
		return nil, errors.WithStack(errors.ErrNoEstimator)
	}

	estimator, ok := stages[len(stages)-1].(*components.Estimator)
	if !ok {
		return nil, errors.WithStack(errors.ErrNoEstimator)
	}
	for _, stage := range stages[:len(stages)-1] {
		if stage.Kind() == components.KindEstimator {
			return nil, errors.NewValidationError("stages", "only the last component may be an estimator", stage.Name())
		}
	}
	if objective.NeedsFitting() {
		if _, ok := objective.(objectives.Fittable); !ok {
			return nil, errors.NewValidationError("objective", "objective needs fitting but is not fittable", objective.Name())
		}
	}

	p := &Pipeline{
		name:              GenerateName(stages),
		objective:         objective,
		stages:            stages,
		estimator:         estimator,
		parameters:        make(map[string]interface{}),
		inputFeatureNames: make(map[string][]string),
		holdoutFraction:   DefaultHoldoutFraction,
		state:             model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = loggerFor(p.name)

	for _, stage := range stages {
		for k, v := range stage.Parameters() {
			p.parameters[fmt.Sprintf("%s__%s", stage.Name(), k)] = v
		}
	}

	if p.holdoutFraction <= 0 || p.holdoutFraction >= 1 {
		return nil, errors.NewValidationError("holdout_fraction", "must be in (0, 1)", p.holdoutFraction)
	}

	return p, nil
}

// GenerateName returns the deterministic pipeline name for a component
// ordering: the estimator name, then "w/" and the transformer names joined
// by "+".
func GenerateName(stages []components.Stage) string {
	if len(stages) == 0 {
		return ""
	}
	name := stages[len(stages)-1].Name()
	for i, stage := range stages[:len(stages)-1] {
		if i == 0 {
			name += fmt.Sprintf(" w/ %s", stage.Name())
		} else {
			name += fmt.Sprintf(" + %s", stage.Name())
		}
	}
	return name
}

// Name returns the generated pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Objective returns the pipeline's primary objective.
func (p *Pipeline) Objective() objectives.Objective { return p.objective }

// Estimator returns the pipeline's final estimator component.
func (p *Pipeline) Estimator() *components.Estimator { return p.estimator }

// IsFitted reports whether the pipeline has been fitted.
func (p *Pipeline) IsFitted() bool { return p.state.IsFitted() }

// Parameters returns a copy of the accumulated component parameters, keyed
// "<component>__<parameter>".
func (p *Pipeline) Parameters() map[string]interface{} {
	params := make(map[string]interface{}, len(p.parameters))
	for k, v := range p.parameters {
		params[k] = v
	}
	return params
}

// GetComponent returns the component with the given name, or nil.
func (p *Pipeline) GetComponent(name string) components.Stage {
	for _, stage := range p.stages {
		if stage.Name() == name {
			return stage
		}
	}
	return nil
}

// ComponentAt returns the component at the given position.
func (p *Pipeline) ComponentAt(index int) (components.Stage, error) {
	if index < 0 || index >= len(p.stages) {
		return nil, errors.NewValueError("Pipeline.ComponentAt", "index out of range")
	}
	return p.stages[index], nil
}

// Components returns the pipeline's stages in order.
func (p *Pipeline) Components() []components.Stage {
	return append([]components.Stage(nil), p.stages...)
}

// InputFeatureNames returns the feature names each component saw at fit
// time, keyed by component name.
func (p *Pipeline) InputFeatureNames() map[string][]string {
	out := make(map[string][]string, len(p.inputFeatureNames))
	for k, v := range p.inputFeatureNames {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Fit builds the pipeline on X and y. When the objective needs its own
// fitting pass, a held-out split is carved off first and the objective is
// fitted on the holdout predictions afterwards.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	start := time.Now()

	r, c := X.Dims()
	ry, _ := y.Dims()
	if ry != r {
		return errors.NewDimensionError("Pipeline.Fit", r, ry, 0)
	}

	XTrain, yTrain := X, y
	var XHoldout, yHoldout mat.Matrix
	if p.objective.NeedsFitting() {
		var err error
		XTrain, XHoldout, yTrain, yHoldout, err = TrainTestSplit(X, y, p.holdoutFraction, p.randomState)
		if err != nil {
			return errors.Wrap(err, "carving objective holdout")
		}
	}

	if err := p.fitStages(XTrain, yTrain); err != nil {
		return err
	}

	if p.objective.NeedsFitting() {
		if err := p.fitObjective(XHoldout, yHoldout); err != nil {
			return err
		}
	}

	p.state.SetFitted()
	p.logger.Info("pipeline fitted",
		log.OperationKey, "fit",
		log.ObjectiveKey, p.objective.Name(),
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// fitStages threads the data through every transformer, fitting the ones
// that need it, then fits the estimator. The feature names seen by each
// component are recorded along the way.
func (p *Pipeline) fitStages(X, y mat.Matrix) error {
	_, c := X.Dims()
	names := p.featureNames
	if len(names) != c {
		names = defaultFeatureNames(c)
	}

	Xt := X
	var err error
	for _, stage := range p.stages[:len(p.stages)-1] {
		p.inputFeatureNames[stage.Name()] = append([]string(nil), names...)
		if stage.NeedsFitting() {
			Xt, err = stage.FitTransform(Xt, y)
		} else {
			Xt, err = stage.Transform(Xt)
		}
		if err != nil {
			return err
		}
		names = stage.OutputFeatureNames(names)
	}

	p.inputFeatureNames[p.estimator.Name()] = append([]string(nil), names...)
	return p.estimator.Fit(Xt, y)
}

// fitObjective fits a fittable objective on holdout predictions.
func (p *Pipeline) fitObjective(XHoldout, yHoldout mat.Matrix) error {
	fittable := p.objective.(objectives.Fittable)

	var predicted *mat.VecDense
	if fittable.FitNeedsProba() {
		proba, err := p.predictProbaRaw(XHoldout)
		if err != nil {
			return err
		}
		predicted = probaVector(proba)
	} else {
		raw, err := p.predictRaw(XHoldout)
		if err != nil {
			return err
		}
		predicted = columnVector(raw)
	}

	var extras mat.Matrix
	if fittable.UsesExtraColumns() {
		extras = XHoldout
	}
	if err := fittable.Fit(predicted, columnVector(yHoldout), extras); err != nil {
		return errors.Wrapf(err, "fitting objective '%s'", p.objective.Name())
	}
	return nil
}

// transform replays the transform chain over every non-final component.
func (p *Pipeline) transform(X mat.Matrix) (mat.Matrix, error) {
	Xt := X
	var err error
	for _, stage := range p.stages[:len(p.stages)-1] {
		Xt, err = stage.Transform(Xt)
		if err != nil {
			return nil, err
		}
	}
	return Xt, nil
}

// predictRaw runs the transform chain and the estimator without objective
// post-processing.
func (p *Pipeline) predictRaw(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.estimator.Predict(Xt)
}

// predictProbaRaw runs the transform chain and the estimator's probability
// output without squeezing.
func (p *Pipeline) predictProbaRaw(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.estimator.PredictProba(Xt)
}

// Predict makes predictions for X. When the objective was fitted on a
// holdout, predictions are routed through the objective's post-processing.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}

	if p.objective.NeedsFitting() {
		fittable := p.objective.(objectives.Fittable)

		var predicted *mat.VecDense
		if fittable.FitNeedsProba() {
			proba, err := p.predictProbaRaw(X)
			if err != nil {
				return nil, err
			}
			predicted = probaVector(proba)
		} else {
			raw, err := p.predictRaw(X)
			if err != nil {
				return nil, err
			}
			predicted = columnVector(raw)
		}

		var extras mat.Matrix
		if fittable.UsesExtraColumns() {
			extras = X
		}
		out, err := fittable.Predict(predicted, extras)
		if err != nil {
			return nil, err
		}
		return columnMatrix(out), nil
	}

	return p.predictRaw(X)
}

// PredictProba makes probability estimates for X. Binary outputs are
// squeezed to the positive-class column as an n x 1 matrix.
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "PredictProba")
	}

	proba, err := p.predictProbaRaw(X)
	if err != nil {
		return nil, err
	}
	_, cols := proba.Dims()
	if cols <= 2 {
		return columnMatrix(probaVector(proba)), nil
	}
	return proba, nil
}

// Score evaluates the pipeline on the primary objective plus any
// additional objectives. Predictions and probabilities are computed at
// most once and reused across objectives. The second return value holds
// one entry per additional objective, in the order requested.
func (p *Pipeline) Score(X, y mat.Matrix, extra ...objectives.Objective) (float64, []ObjectiveScore, error) {
	if !p.state.IsFitted() {
		return 0, nil, errors.NewNotFittedError("Pipeline", "Score")
	}

	yTrue := columnVector(y)
	var yPredicted, yProba *mat.VecDense

	all := append([]objectives.Objective{p.objective}, extra...)
	scores := make([]float64, 0, len(all))
	for _, obj := range all {
		var predictions *mat.VecDense
		if obj.ScoreNeedsProba() {
			if yProba == nil {
				proba, err := p.PredictProba(X)
				if err != nil {
					return 0, nil, err
				}
				yProba = columnVector(proba)
			}
			predictions = yProba
		} else {
			if yPredicted == nil {
				predicted, err := p.Predict(X)
				if err != nil {
					return 0, nil, err
				}
				yPredicted = columnVector(predicted)
			}
			predictions = yPredicted
		}

		var extras mat.Matrix
		if obj.UsesExtraColumns() {
			extras = X
		}
		score, err := obj.Score(predictions, yTrue, extras)
		if err != nil {
			return 0, nil, errors.Wrapf(err, "scoring objective '%s'", obj.Name())
		}
		scores = append(scores, score)
	}

	p.logger.Info("pipeline scored",
		log.OperationKey, "score",
		log.ObjectiveKey, p.objective.Name(),
		log.ScoreKey, scores[0],
	)

	if len(extra) == 0 {
		return scores[0], nil, nil
	}
	other := make([]ObjectiveScore, len(extra))
	for i, obj := range extra {
		other[i] = ObjectiveScore{Name: obj.Name(), Score: scores[i+1]}
	}
	return scores[0], other, nil
}

// FeatureImportances returns the estimator's feature importances paired
// with the feature names it saw at fit time, sorted by absolute importance
// descending. Features dropped by feature selection are excluded.
func (p *Pipeline) FeatureImportances() ([]FeatureImportance, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "FeatureImportances")
	}

	values, err := p.estimator.FeatureImportances()
	if err != nil {
		return nil, err
	}
	names := p.inputFeatureNames[p.estimator.Name()]
	if len(names) != len(values) {
		return nil, errors.NewDimensionError("Pipeline.FeatureImportances", len(names), len(values), 1)
	}

	importances := make([]FeatureImportance, len(values))
	for i, v := range values {
		importances[i] = FeatureImportance{Feature: names[i], Importance: v}
	}
	sort.SliceStable(importances, func(a, b int) bool {
		return abs(importances[a].Importance) > abs(importances[b].Importance)
	})
	return importances, nil
}

// Describe logs pipeline details including component parameters.
func (p *Pipeline) Describe() {
	p.logger.Info(p.name)
	p.logger.Info(fmt.Sprintf("Problem Type: %s", p.estimator.ProblemKind()))

	better := "lower is better"
	if p.objective.GreaterIsBetter() {
		better = "greater is better"
	}
	p.logger.Info(fmt.Sprintf("Objective to Optimize: %s (%s)", p.objective.Name(), better))

	if names, ok := p.inputFeatureNames[p.estimator.Name()]; ok {
		p.logger.Info(fmt.Sprintf("Number of features: %d", len(names)))
	}

	p.logger.Info("Pipeline Steps")
	for i, stage := range p.stages {
		p.logger.Info(fmt.Sprintf("%d. %s", i+1, stage.Name()))
		stage.Describe()
	}
}

func defaultFeatureNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("feature_%d", i)
	}
	return names
}

// columnVector copies the first column of m into a vector.
func columnVector(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}

// probaVector extracts the positive-class probability column.
func probaVector(proba mat.Matrix) *mat.VecDense {
	r, c := proba.Dims()
	col := c - 1
	if col > 1 {
		col = 1
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, proba.At(i, col))
	}
	return v
}

func columnMatrix(v *mat.VecDense) mat.Matrix {
	out := mat.NewDense(v.Len(), 1, nil)
	for i := 0; i < v.Len(); i++ {
		out.Set(i, 0, v.AtVec(i))
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
