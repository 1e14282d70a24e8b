package components

import (
	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/core/model"
	"github.com/evalpipe/evalpipe/pkg/errors"
)

// LinearRegression is an ordinary least squares regressor solved via the
// normal equations w = (X^T X)^-1 X^T y.
type LinearRegression struct {
	fitIntercept bool

	weights   *mat.VecDense
	intercept float64
	nFeatures int
	state     *model.StateManager
}

// LinearRegressionOption configures a LinearRegression.
type LinearRegressionOption func(*LinearRegression)

// WithFitIntercept sets whether an intercept term is estimated.
func WithFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// NewLinearRegression creates a linear regression model.
func NewLinearRegression(opts ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{
		fitIntercept: true,
		state:        model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Weights returns the learned coefficients.
func (lr *LinearRegression) Weights() *mat.VecDense { return lr.weights }

// Intercept returns the learned intercept.
func (lr *LinearRegression) Intercept() float64 { return lr.intercept }

// Fit solves the normal equations on X and y.
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}

	lr.nFeatures = c

	cols := c
	if lr.fitIntercept {
		cols++
	}
	Xd := mat.NewDense(r, cols, nil)
	for i := 0; i < r; i++ {
		offset := 0
		if lr.fitIntercept {
			Xd.Set(i, 0, 1.0)
			offset = 1
		}
		for j := 0; j < c; j++ {
			Xd.Set(i, j+offset, X.At(i, j))
		}
	}

	var XT mat.Dense
	XT.CloneFrom(Xd.T())

	var XTX mat.Dense
	XTX.Mul(&XT, Xd)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	solution := mat.NewVecDense(cols, nil)
	solution.MulVec(&XTXInv, &XTy)

	lr.weights = mat.NewVecDense(c, nil)
	if lr.fitIntercept {
		lr.intercept = solution.AtVec(0)
		for j := 0; j < c; j++ {
			lr.weights.SetVec(j, solution.AtVec(j+1))
		}
	} else {
		lr.intercept = 0
		for j := 0; j < c; j++ {
			lr.weights.SetVec(j, solution.AtVec(j))
		}
	}

	lr.state.SetFitted()
	return nil
}

// Predict computes y = X*w + b as an n x 1 matrix.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.nFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.nFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		sum := lr.intercept
		for j := 0; j < c; j++ {
			sum += X.At(i, j) * lr.weights.AtVec(j)
		}
		predictions.Set(i, 0, sum)
	}
	return predictions, nil
}

// FeatureImportances returns the learned coefficients.
func (lr *LinearRegression) FeatureImportances() []float64 {
	if lr.weights == nil {
		return nil
	}
	importances := make([]float64, lr.weights.Len())
	for j := range importances {
		importances[j] = lr.weights.AtVec(j)
	}
	return importances
}

// LinearRegressionEstimator wraps a LinearRegression in an estimator
// component.
func LinearRegressionEstimator(opts ...LinearRegressionOption) *Estimator {
	lr := NewLinearRegression(opts...)
	return NewEstimator("Linear Regression", Regression, lr,
		WithParameters(map[string]interface{}{
			"fit_intercept": lr.fitIntercept,
		}),
	)
}
