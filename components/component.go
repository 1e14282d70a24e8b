// Package components provides the pipeline component wrapper and the
// built-in transformers and estimators it wraps.
//
// A Component forwards Fit and Transform calls to a wrapped object through
// the capability interfaces in core/model. A wrapped object that lacks a
// required method surfaces as a MisconfiguredComponentError rather than a
// panic. Estimator extends Component with prediction capabilities and must
// terminate every pipeline.
package components

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/core/model"
	"github.com/evalpipe/evalpipe/pkg/errors"
	"github.com/evalpipe/evalpipe/pkg/log"
)

// Kind is the type tag of a pipeline component.
type Kind string

// Component kinds.
const (
	KindImputer         Kind = "imputer"
	KindScaler          Kind = "scaler"
	KindFeatureSelector Kind = "feature_selection"
	KindEstimator       Kind = "estimator"
)

// ProblemKind is the kind of problem an estimator solves.
type ProblemKind string

// Problem kinds.
const (
	Classification ProblemKind = "classification"
	Regression     ProblemKind = "regression"
)

var globalProvider log.LoggerProvider

// SetLoggerProvider sets the logger provider used by newly created
// components. Tests use it to capture Describe output.
func SetLoggerProvider(p log.LoggerProvider) {
	globalProvider = p
}

func loggerFor(name string) log.Logger {
	if globalProvider == nil {
		globalProvider = log.NewZerologProvider(log.LevelInfo)
	}
	return globalProvider.GetLoggerWithName(name)
}

// Stage is the surface a pipeline requires of its components. It is
// implemented by Component and, through embedding, by Estimator.
type Stage interface {
	Name() string
	Kind() Kind
	NeedsFitting() bool
	IsFitted() bool
	Parameters() map[string]interface{}
	Fit(X, y mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X, y mat.Matrix) (mat.Matrix, error)
	OutputFeatureNames(in []string) []string
	Describe()
}

// Component is a pipeline stage wrapping a transformer or model object.
// It holds the component's name, kind, parameters, and fitting requirement,
// and forwards calls to the wrapped object. Components are constructed once
// and not mutated afterwards.
type Component struct {
	name         string
	kind         Kind
	parameters   map[string]interface{}
	obj          interface{}
	needsFitting bool
	state        *model.StateManager
	logger       log.Logger
}

// ComponentOption configures a Component at construction.
type ComponentOption func(*Component)

// WithParameters records the component's parameter mapping, reported by
// Describe and accumulated by the pipeline.
func WithParameters(parameters map[string]interface{}) ComponentOption {
	return func(c *Component) {
		for k, v := range parameters {
			c.parameters[k] = v
		}
	}
}

// WithNeedsFitting marks whether the component must be fitted before it can
// transform data.
func WithNeedsFitting(needsFitting bool) ComponentOption {
	return func(c *Component) {
		c.needsFitting = needsFitting
	}
}

// NewComponent creates a component wrapping obj.
func NewComponent(name string, kind Kind, obj interface{}, opts ...ComponentOption) *Component {
	c := &Component{
		name:       name,
		kind:       kind,
		parameters: make(map[string]interface{}),
		obj:        obj,
		state:      model.NewStateManager(),
		logger:     loggerFor(name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// Kind returns the component's type tag.
func (c *Component) Kind() Kind { return c.kind }

// NeedsFitting reports whether the component must be fitted before use.
func (c *Component) NeedsFitting() bool { return c.needsFitting }

// IsFitted reports whether the component has been fitted.
func (c *Component) IsFitted() bool { return c.state.IsFitted() }

// Object returns the wrapped object.
func (c *Component) Object() interface{} { return c.obj }

// Parameters returns a copy of the component's parameter mapping.
func (c *Component) Parameters() map[string]interface{} {
	params := make(map[string]interface{}, len(c.parameters))
	for k, v := range c.parameters {
		params[k] = v
	}
	return params
}

// Fit delegates to the wrapped object's Fit method. Objects that learn
// from the features alone may implement the unsupervised variant. A
// wrapped object with neither is a misconfigured component.
func (c *Component) Fit(X, y mat.Matrix) error {
	var err error
	switch fitter := c.obj.(type) {
	case model.Fitter:
		err = fitter.Fit(X, y)
	case model.UnsupervisedFitter:
		err = fitter.Fit(X)
	default:
		return errors.NewMisconfiguredComponentError(c.name, "Fit")
	}
	if err != nil {
		return errors.Wrapf(err, "fitting component '%s'", c.name)
	}
	r, cols := X.Dims()
	c.state.SetDimensions(cols, r)
	c.state.SetFitted()
	return nil
}

// Transform delegates to the wrapped object's Transform method.
func (c *Component) Transform(X mat.Matrix) (mat.Matrix, error) {
	transformer, ok := c.obj.(model.Transformer)
	if !ok {
		return nil, errors.NewMisconfiguredComponentError(c.name, "Transform")
	}
	Xt, err := transformer.Transform(X)
	if err != nil {
		return nil, errors.Wrapf(err, "transforming at component '%s'", c.name)
	}
	return Xt, nil
}

// FitTransform fits the component and transforms X in one pass.
func (c *Component) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if ft, ok := c.obj.(model.FitTransformer); ok {
		Xt, err := ft.FitTransform(X, y)
		if err != nil {
			return nil, errors.Wrapf(err, "fit-transforming at component '%s'", c.name)
		}
		r, cols := X.Dims()
		c.state.SetDimensions(cols, r)
		c.state.SetFitted()
		return Xt, nil
	}
	if err := c.Fit(X, y); err != nil {
		return nil, err
	}
	return c.Transform(X)
}

// OutputFeatureNames maps input feature names to the names of the columns
// this component outputs. Components that keep the feature set unchanged
// pass the names through.
func (c *Component) OutputFeatureNames(in []string) []string {
	if namer, ok := c.obj.(model.FeatureNamer); ok {
		return namer.OutputFeatureNames(in)
	}
	return in
}

// Describe logs the component name and its stored parameters.
func (c *Component) Describe() {
	keys := make([]string, 0, len(c.parameters))
	for k := range c.parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		fields = append(fields, k, fmt.Sprintf("%v", c.parameters[k]))
	}
	c.logger.Info(c.name, fields...)
}

// Estimator is a component that produces predictions. Every pipeline must
// end in exactly one Estimator.
type Estimator struct {
	*Component
	problemKind ProblemKind
}

// NewEstimator creates an estimator component wrapping obj.
func NewEstimator(name string, problemKind ProblemKind, obj interface{}, opts ...ComponentOption) *Estimator {
	opts = append([]ComponentOption{WithNeedsFitting(true)}, opts...)
	return &Estimator{
		Component:   NewComponent(name, KindEstimator, obj, opts...),
		problemKind: problemKind,
	}
}

// ProblemKind returns the kind of problem the estimator solves.
func (e *Estimator) ProblemKind() ProblemKind { return e.problemKind }

// Predict delegates to the wrapped object's Predict method.
func (e *Estimator) Predict(X mat.Matrix) (mat.Matrix, error) {
	predictor, ok := e.obj.(model.Predictor)
	if !ok {
		return nil, errors.NewMisconfiguredComponentError(e.name, "Predict")
	}
	return predictor.Predict(X)
}

// PredictProba delegates to the wrapped object's PredictProba method.
func (e *Estimator) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	predictor, ok := e.obj.(model.ProbaPredictor)
	if !ok {
		return nil, errors.NewMisconfiguredComponentError(e.name, "PredictProba")
	}
	return predictor.PredictProba(X)
}

// FeatureImportances returns the wrapped estimator's per-feature
// importances.
func (e *Estimator) FeatureImportances() ([]float64, error) {
	imp, ok := e.obj.(model.FeatureImportancer)
	if !ok {
		return nil, errors.NewMisconfiguredComponentError(e.name, "FeatureImportances")
	}
	return imp.FeatureImportances(), nil
}
