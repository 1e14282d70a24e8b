package components

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/evalpipe/evalpipe/core/model"
	"github.com/evalpipe/evalpipe/pkg/errors"
)

// SelectKBest keeps the k features most correlated with the target,
// ranked by the univariate F-statistic.
type SelectKBest struct {
	k int

	scores    []float64
	support   []bool
	selected  []int
	nFeatures int
	state     *model.StateManager
}

// NewSelectKBest creates a selector keeping the top k features.
func NewSelectKBest(k int) *SelectKBest {
	return &SelectKBest{
		k:     k,
		state: model.NewStateManager(),
	}
}

// K returns the number of features kept.
func (s *SelectKBest) K() int { return s.k }

// Scores returns the per-feature F-statistics computed at fit time.
func (s *SelectKBest) Scores() []float64 { return s.scores }

// SupportMask returns a boolean mask of the selected features.
func (s *SelectKBest) SupportMask() []bool { return s.support }

// Fit ranks every feature by its F-statistic against y and records the top
// k as selected.
func (s *SelectKBest) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SelectKBest.Fit", "empty data", errors.ErrEmptyData)
	}
	if s.k <= 0 {
		return errors.NewValidationError("k", "must be positive", s.k)
	}
	if y == nil {
		return errors.NewValueError("SelectKBest.Fit", "y is required")
	}
	ry, _ := y.Dims()
	if ry != r {
		return errors.NewDimensionError("SelectKBest.Fit", r, ry, 0)
	}

	target := make([]float64, r)
	for i := 0; i < r; i++ {
		target[i] = y.At(i, 0)
	}

	s.nFeatures = c
	s.scores = make([]float64, c)
	column := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			column[i] = X.At(i, j)
		}
		s.scores[j] = fStatistic(column, target)
	}

	// Rank features by score, ties broken by index for determinism.
	order := make([]int, c)
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.scores[order[a]] > s.scores[order[b]]
	})

	k := s.k
	if k > c {
		k = c
	}
	s.selected = append([]int(nil), order[:k]...)
	sort.Ints(s.selected)

	s.support = make([]bool, c)
	for _, j := range s.selected {
		s.support[j] = true
	}

	s.state.SetFitted()
	return nil
}

// Transform keeps only the selected feature columns.
func (s *SelectKBest) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SelectKBest", "Transform")
	}
	r, c := X.Dims()
	if c != s.nFeatures {
		return nil, errors.NewDimensionError("SelectKBest.Transform", s.nFeatures, c, 1)
	}

	result := mat.NewDense(r, len(s.selected), nil)
	for i := 0; i < r; i++ {
		for out, j := range s.selected {
			result.Set(i, out, X.At(i, j))
		}
	}
	return result, nil
}

// FitTransform fits the selector and transforms X in one pass.
func (s *SelectKBest) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X, y); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// OutputFeatureNames keeps the names of the selected columns.
func (s *SelectKBest) OutputFeatureNames(in []string) []string {
	if len(s.selected) == 0 || len(in) != s.nFeatures {
		return in
	}
	out := make([]string, 0, len(s.selected))
	for _, j := range s.selected {
		out = append(out, in[j])
	}
	return out
}

// fStatistic computes the univariate F-statistic of a single feature
// against the target via the squared Pearson correlation.
func fStatistic(feature, target []float64) float64 {
	n := float64(len(feature))
	if n < 3 {
		return 0
	}
	r := stat.Correlation(feature, target, nil)
	r2 := r * r
	if r2 >= 1 {
		// Perfectly correlated features get an effectively infinite score.
		return 1e18
	}
	if r2 != r2 { // NaN from a zero-variance feature
		return 0
	}
	return r2 / (1 - r2) * (n - 2)
}

// SelectKBestComponent wraps a SelectKBest in a pipeline component.
func SelectKBestComponent(k int) *Component {
	return NewComponent("Select K Best", KindFeatureSelector, NewSelectKBest(k),
		WithNeedsFitting(true),
		WithParameters(map[string]interface{}{
			"k": k,
		}),
	)
}
