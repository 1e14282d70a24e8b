package components

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/core/model"
	"github.com/evalpipe/evalpipe/pkg/errors"
)

// ImputeStrategy selects how SimpleImputer fills missing values.
type ImputeStrategy string

// Imputation strategies.
const (
	ImputeMean         ImputeStrategy = "mean"
	ImputeMedian       ImputeStrategy = "median"
	ImputeMostFrequent ImputeStrategy = "most_frequent"
)

// SimpleImputer replaces NaN cells with a per-column statistic learned at
// fit time.
type SimpleImputer struct {
	strategy ImputeStrategy

	fillValues []float64
	nFeatures  int
	state      *model.StateManager
}

// ImputerOption configures a SimpleImputer.
type ImputerOption func(*SimpleImputer)

// WithStrategy sets the imputation strategy.
func WithStrategy(strategy ImputeStrategy) ImputerOption {
	return func(s *SimpleImputer) {
		s.strategy = strategy
	}
}

// NewSimpleImputer creates an imputer with the mean strategy by default.
func NewSimpleImputer(opts ...ImputerOption) *SimpleImputer {
	s := &SimpleImputer{
		strategy: ImputeMean,
		state:    model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the configured imputation strategy.
func (s *SimpleImputer) Strategy() ImputeStrategy { return s.strategy }

// Fit learns the per-column fill values from the non-missing cells of X.
// The target is ignored.
func (s *SimpleImputer) Fit(X, _ mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	switch s.strategy {
	case ImputeMean, ImputeMedian, ImputeMostFrequent:
	default:
		return errors.NewValidationError("impute_strategy", "unknown strategy", string(s.strategy))
	}

	s.nFeatures = c
	s.fillValues = make([]float64, c)
	for j := 0; j < c; j++ {
		var observed []float64
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			// A fully missing column has no statistic to learn.
			errors.Warn(errors.NewDataConversionWarning("NaN", "0", "column has no observed values"))
			s.fillValues[j] = 0
			continue
		}
		s.fillValues[j] = fillValue(observed, s.strategy)
	}

	s.state.SetFitted()
	return nil
}

// Transform replaces NaN cells with the learned fill values.
func (s *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}
	r, c := X.Dims()
	if c != s.nFeatures {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", s.nFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = s.fillValues[j]
			}
			result.Set(i, j, v)
		}
	}
	return result, nil
}

// FitTransform fits the imputer and transforms X in one pass.
func (s *SimpleImputer) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X, y); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func fillValue(observed []float64, strategy ImputeStrategy) float64 {
	switch strategy {
	case ImputeMedian:
		sorted := append([]float64(nil), observed...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	case ImputeMostFrequent:
		counts := make(map[float64]int)
		for _, v := range observed {
			counts[v]++
		}
		best := observed[0]
		for v, n := range counts {
			if n > counts[best] || (n == counts[best] && v < best) {
				best = v
			}
		}
		return best
	default: // ImputeMean
		var sum float64
		for _, v := range observed {
			sum += v
		}
		return sum / float64(len(observed))
	}
}

// SimpleImputerComponent wraps a SimpleImputer in a pipeline component.
func SimpleImputerComponent(opts ...ImputerOption) *Component {
	imputer := NewSimpleImputer(opts...)
	return NewComponent("Simple Imputer", KindImputer, imputer,
		WithNeedsFitting(true),
		WithParameters(map[string]interface{}{
			"impute_strategy": string(imputer.Strategy()),
		}),
	)
}
