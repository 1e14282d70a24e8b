package components

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/core/model"
	"github.com/evalpipe/evalpipe/pkg/errors"
)

// StandardScaler standardizes features to zero mean and unit variance.
type StandardScaler struct {
	withMean bool
	withStd  bool

	mean      []float64
	scale     []float64
	nFeatures int
	state     *model.StateManager
}

// ScalerOption configures a StandardScaler.
type ScalerOption func(*StandardScaler)

// WithMean sets whether the mean is subtracted.
func WithMean(withMean bool) ScalerOption {
	return func(s *StandardScaler) {
		s.withMean = withMean
	}
}

// WithStd sets whether features are divided by the standard deviation.
func WithStd(withStd bool) ScalerOption {
	return func(s *StandardScaler) {
		s.withStd = withStd
	}
}

// NewStandardScaler creates a scaler that centers and scales by default.
func NewStandardScaler(opts ...ScalerOption) *StandardScaler {
	s := &StandardScaler{
		withMean: true,
		withStd:  true,
		state:    model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mean returns the learned per-feature means.
func (s *StandardScaler) Mean() []float64 { return s.mean }

// Scale returns the learned per-feature standard deviations.
func (s *StandardScaler) Scale() []float64 { return s.scale }

// Fit computes the per-feature mean and standard deviation of X. The
// target is ignored.
func (s *StandardScaler) Fit(X, _ mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.nFeatures = c
	s.mean = make([]float64, c)
	s.scale = make([]float64, c)

	if s.withMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.mean[j] = sum / float64(r)
		}
	}

	if s.withStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.mean[j]
				sumSquares += diff * diff
			}
			variance := sumSquares / float64(r)
			s.scale[j] = math.Sqrt(variance)

			// Guard against division by zero on constant features.
			if math.Abs(s.scale[j]) < 1e-8 {
				s.scale[j] = 1.0
			}
		}
	} else {
		for j := 0; j < c; j++ {
			s.scale[j] = 1.0
		}
	}

	s.state.SetFitted()
	return nil
}

// Transform standardizes X using the learned statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.nFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.nFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.mean[j])/s.scale[j])
		}
	}
	return result, nil
}

// FitTransform fits the scaler and transforms X in one pass.
func (s *StandardScaler) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X, y); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// StandardScalerComponent wraps a StandardScaler in a pipeline component.
func StandardScalerComponent(opts ...ScalerOption) *Component {
	scaler := NewStandardScaler(opts...)
	return NewComponent("Standard Scaler", KindScaler, scaler,
		WithNeedsFitting(true),
		WithParameters(map[string]interface{}{
			"with_mean": scaler.withMean,
			"with_std":  scaler.withStd,
		}),
	)
}
