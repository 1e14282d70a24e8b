package components

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/core/model"
	"github.com/evalpipe/evalpipe/pkg/errors"
)

// LogisticRegression is a binary classifier trained with batch gradient
// descent and L2 regularization.
type LogisticRegression struct {
	// Hyperparameters
	c            float64 // Inverse regularization strength
	learningRate float64
	maxIter      int
	tol          float64
	fitIntercept bool

	// Model parameters
	coef      []float64
	intercept float64
	nFeatures int
	state     *model.StateManager
}

// LogisticOption configures a LogisticRegression.
type LogisticOption func(*LogisticRegression)

// WithC sets the inverse regularization strength.
func WithC(c float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithLearningRate sets the gradient descent step size.
func WithLearningRate(rate float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = rate
	}
}

// WithMaxIter sets the maximum number of gradient descent iterations.
func WithMaxIter(maxIter int) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithTol sets the gradient-norm stopping tolerance.
func WithTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLogisticFitIntercept sets whether an intercept term is estimated.
func WithLogisticFitIntercept(fit bool) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// NewLogisticRegression creates a logistic regression classifier with
// scikit-learn compatible defaults.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		c:            1.0,
		learningRate: 0.1,
		maxIter:      1000,
		tol:          1e-4,
		fitIntercept: true,
		state:        model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Coef returns the learned coefficients.
func (lr *LogisticRegression) Coef() []float64 { return lr.coef }

// Intercept returns the learned intercept.
func (lr *LogisticRegression) Intercept() float64 { return lr.intercept }

// Classes returns the class labels, always {0, 1}.
func (lr *LogisticRegression) Classes() []int { return []int{0, 1} }

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Fit trains the classifier on X and binary labels y.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LogisticRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	for i := 0; i < r; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewValueError("LogisticRegression.Fit", "labels must be binary (0 or 1)")
		}
	}

	lr.nFeatures = c
	lr.coef = make([]float64, c)
	lr.intercept = 0

	lambda := 1.0 / (lr.c * float64(r))
	grad := make([]float64, c)
	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradIntercept float64

		for i := 0; i < r; i++ {
			z := lr.intercept
			for j := 0; j < c; j++ {
				z += X.At(i, j) * lr.coef[j]
			}
			residual := sigmoid(z) - y.At(i, 0)
			for j := 0; j < c; j++ {
				grad[j] += residual * X.At(i, j)
			}
			gradIntercept += residual
		}

		maxGrad := 0.0
		for j := 0; j < c; j++ {
			grad[j] = grad[j]/float64(r) + lambda*lr.coef[j]
			if g := math.Abs(grad[j]); g > maxGrad {
				maxGrad = g
			}
		}
		gradIntercept /= float64(r)
		if g := math.Abs(gradIntercept); g > maxGrad {
			maxGrad = g
		}

		for j := 0; j < c; j++ {
			lr.coef[j] -= lr.learningRate * grad[j]
		}
		if lr.fitIntercept {
			lr.intercept -= lr.learningRate * gradIntercept
		}

		if maxGrad < lr.tol {
			break
		}
	}

	lr.state.SetFitted()
	return nil
}

// Predict returns hard labels for X as an n x 1 matrix.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := proba.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if proba.At(i, 1) > 0.5 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// PredictProba returns an n x 2 matrix of class probabilities, column 0 for
// the negative class and column 1 for the positive class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	r, c := X.Dims()
	if c != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures, c, 1)
	}

	proba := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		z := lr.intercept
		for j := 0; j < c; j++ {
			z += X.At(i, j) * lr.coef[j]
		}
		p := sigmoid(z)
		proba.Set(i, 0, 1-p)
		proba.Set(i, 1, p)
	}
	return proba, nil
}

// FeatureImportances returns the learned coefficients.
func (lr *LogisticRegression) FeatureImportances() []float64 {
	return append([]float64(nil), lr.coef...)
}

// LogisticRegressionEstimator wraps a LogisticRegression in an estimator
// component.
func LogisticRegressionEstimator(opts ...LogisticOption) *Estimator {
	lr := NewLogisticRegression(opts...)
	return NewEstimator("Logistic Regression", Classification, lr,
		WithParameters(map[string]interface{}{
			"C":             lr.c,
			"max_iter":      lr.maxIter,
			"fit_intercept": lr.fitIntercept,
		}),
	)
}
