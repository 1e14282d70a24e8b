// Package model provides the capability interfaces shared by pipeline
// components and the fitted-state management they compose.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for objects that learn from training data.
// Transformers that do not use the target may ignore y; it can be nil.
type Fitter interface {
	// Fit trains the object on X (n_samples x n_features) and y (n_samples x 1).
	Fit(X, y mat.Matrix) error
}

// UnsupervisedFitter is the interface for objects that learn from the
// feature matrix alone.
type UnsupervisedFitter interface {
	// Fit trains the object on X (n_samples x n_features).
	Fit(X mat.Matrix) error
}

// Transformer is the interface for objects that transform a feature matrix.
type Transformer interface {
	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// FitTransformer combines fitting and transforming in a single pass.
type FitTransformer interface {
	// FitTransform fits on X, y and returns the transformed X.
	FitTransform(X, y mat.Matrix) (mat.Matrix, error)
}

// Predictor is the interface for objects that produce predictions.
type Predictor interface {
	// Predict returns predictions for X as an n_samples x 1 matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbaPredictor is the interface for classifiers that produce
// per-class probability estimates.
type ProbaPredictor interface {
	// PredictProba returns an n_samples x n_classes matrix of probabilities.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// FeatureImportancer is the interface for estimators that expose a
// per-feature importance value.
type FeatureImportancer interface {
	FeatureImportances() []float64
}

// FeatureNamer is the interface for transformers that change the feature
// set, mapping the input feature names to the names of their output columns.
type FeatureNamer interface {
	OutputFeatureNames(in []string) []string
}

// ParameterGetter is the interface for objects that expose their
// hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
