package objectives

import (
	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/core/model"
	"github.com/evalpipe/evalpipe/pkg/errors"
)

// ThresholdTuner wraps a label-based binary objective and tunes the
// probability decision threshold on held-out data. The pipeline fits it
// during Fit and routes probabilities through Predict afterwards.
type ThresholdTuner struct {
	base      Objective
	threshold float64
	steps     int
	state     *model.StateManager
}

// ThresholdTunerOption configures a ThresholdTuner.
type ThresholdTunerOption func(*ThresholdTuner)

// WithThresholdSteps sets the number of candidate thresholds scanned during
// fitting.
func WithThresholdSteps(steps int) ThresholdTunerOption {
	return func(t *ThresholdTuner) {
		t.steps = steps
	}
}

// NewThresholdTuner creates a threshold-tuning objective around base. The
// base objective must score labels, not probabilities.
func NewThresholdTuner(base Objective, opts ...ThresholdTunerOption) (*ThresholdTuner, error) {
	if base == nil {
		return nil, errors.NewValidationError("base", "base objective must not be nil", nil)
	}
	if base.ScoreNeedsProba() {
		return nil, errors.NewValidationError("base", "base objective must score labels", base.Name())
	}
	t := &ThresholdTuner{
		base:      base,
		threshold: 0.5,
		steps:     100,
		state:     model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *ThresholdTuner) Name() string           { return t.base.Name() + " (tuned threshold)" }
func (t *ThresholdTuner) GreaterIsBetter() bool  { return t.base.GreaterIsBetter() }
func (t *ThresholdTuner) ScoreNeedsProba() bool  { return false }
func (t *ThresholdTuner) NeedsFitting() bool     { return true }
func (t *ThresholdTuner) UsesExtraColumns() bool { return false }
func (t *ThresholdTuner) FitNeedsProba() bool    { return true }

// Threshold returns the fitted decision threshold.
func (t *ThresholdTuner) Threshold() float64 { return t.threshold }

// Fit scans candidate thresholds over the held-out probabilities and keeps
// the one with the best base score.
func (t *ThresholdTuner) Fit(yProba, yTrue *mat.VecDense, _ mat.Matrix) error {
	if yProba == nil || yTrue == nil || yProba.Len() == 0 {
		return errors.NewValueError("ThresholdTuner.Fit", "empty input")
	}
	if yProba.Len() != yTrue.Len() {
		return errors.NewDimensionError("ThresholdTuner.Fit", yTrue.Len(), yProba.Len(), 0)
	}

	best := t.threshold
	haveBest := false
	var bestScore float64
	for i := 1; i < t.steps; i++ {
		candidate := float64(i) / float64(t.steps)
		labels := applyThreshold(yProba, candidate)
		score, err := t.base.Score(labels, yTrue, nil)
		if err != nil {
			return errors.Wrap(err, "scoring threshold candidate")
		}
		if !haveBest || better(score, bestScore, t.base.GreaterIsBetter()) {
			best, bestScore, haveBest = candidate, score, true
		}
	}

	t.threshold = best
	t.state.SetFitted()
	return nil
}

// Predict maps probabilities to labels using the fitted threshold.
func (t *ThresholdTuner) Predict(yProba *mat.VecDense, _ mat.Matrix) (*mat.VecDense, error) {
	if !t.state.IsFitted() {
		return nil, errors.NewNotFittedError(t.Name(), "Predict")
	}
	return applyThreshold(yProba, t.threshold), nil
}

// Score delegates to the base objective on the thresholded labels.
func (t *ThresholdTuner) Score(yPredicted, yTrue *mat.VecDense, extras mat.Matrix) (float64, error) {
	return t.base.Score(yPredicted, yTrue, extras)
}

// CostSensitive is a fraud-cost style objective: every false positive and
// false negative costs a multiple of a per-row amount taken from an extra
// input column. It tunes the probability threshold that minimizes the total
// cost. Lower scores are better.
type CostSensitive struct {
	fpCost       float64
	fnCost       float64
	amountColumn int
	threshold    float64
	steps        int
	state        *model.StateManager
}

// CostSensitiveOption configures a CostSensitive objective.
type CostSensitiveOption func(*CostSensitive)

// WithFalsePositiveCost sets the cost multiplier for false positives.
func WithFalsePositiveCost(cost float64) CostSensitiveOption {
	return func(c *CostSensitive) {
		c.fpCost = cost
	}
}

// WithFalseNegativeCost sets the cost multiplier for false negatives.
func WithFalseNegativeCost(cost float64) CostSensitiveOption {
	return func(c *CostSensitive) {
		c.fnCost = cost
	}
}

// WithAmountColumn sets the index of the extra column holding the per-row
// amount.
func WithAmountColumn(col int) CostSensitiveOption {
	return func(c *CostSensitive) {
		c.amountColumn = col
	}
}

// NewCostSensitive creates a cost-sensitive objective. By default false
// positives and false negatives cost the full row amount and the amount is
// read from column 0 of the extras.
func NewCostSensitive(opts ...CostSensitiveOption) *CostSensitive {
	c := &CostSensitive{
		fpCost:    1.0,
		fnCost:    1.0,
		threshold: 0.5,
		steps:     100,
		state:     model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CostSensitive) Name() string           { return "Cost Sensitive" }
func (c *CostSensitive) GreaterIsBetter() bool  { return false }
func (c *CostSensitive) ScoreNeedsProba() bool  { return false }
func (c *CostSensitive) NeedsFitting() bool     { return true }
func (c *CostSensitive) UsesExtraColumns() bool { return true }
func (c *CostSensitive) FitNeedsProba() bool    { return true }

// Threshold returns the fitted decision threshold.
func (c *CostSensitive) Threshold() float64 { return c.threshold }

// Fit scans candidate thresholds and keeps the one minimizing the total
// cost on the held-out split.
func (c *CostSensitive) Fit(yProba, yTrue *mat.VecDense, extras mat.Matrix) error {
	if yProba == nil || yTrue == nil || yProba.Len() == 0 {
		return errors.NewValueError("CostSensitive.Fit", "empty input")
	}
	if yProba.Len() != yTrue.Len() {
		return errors.NewDimensionError("CostSensitive.Fit", yTrue.Len(), yProba.Len(), 0)
	}

	best := c.threshold
	haveBest := false
	var bestCost float64
	for i := 1; i < c.steps; i++ {
		candidate := float64(i) / float64(c.steps)
		labels := applyThreshold(yProba, candidate)
		cost, err := c.Score(labels, yTrue, extras)
		if err != nil {
			return errors.Wrap(err, "scoring threshold candidate")
		}
		if !haveBest || cost < bestCost {
			best, bestCost, haveBest = candidate, cost, true
		}
	}

	c.threshold = best
	c.state.SetFitted()
	return nil
}

// Predict maps probabilities to labels using the fitted threshold.
func (c *CostSensitive) Predict(yProba *mat.VecDense, _ mat.Matrix) (*mat.VecDense, error) {
	if !c.state.IsFitted() {
		return nil, errors.NewNotFittedError(c.Name(), "Predict")
	}
	return applyThreshold(yProba, c.threshold), nil
}

// Score computes the total misclassification cost weighted by the per-row
// amount column.
func (c *CostSensitive) Score(yPredicted, yTrue *mat.VecDense, extras mat.Matrix) (float64, error) {
	if yPredicted == nil || yTrue == nil || yPredicted.Len() != yTrue.Len() {
		got := 0
		if yPredicted != nil {
			got = yPredicted.Len()
		}
		return 0, errors.NewDimensionError("CostSensitive.Score", yTrue.Len(), got, 0)
	}
	if extras == nil {
		return 0, errors.NewValidationError("extras", "cost-sensitive scoring requires the amount column", nil)
	}
	rows, cols := extras.Dims()
	if rows != yTrue.Len() {
		return 0, errors.NewDimensionError("CostSensitive.Score", yTrue.Len(), rows, 0)
	}
	if c.amountColumn >= cols {
		return 0, errors.NewValidationError("amount_column", "column index out of range", c.amountColumn)
	}

	var cost float64
	for i := 0; i < yTrue.Len(); i++ {
		amount := extras.At(i, c.amountColumn)
		predicted := yPredicted.AtVec(i) == 1
		actual := yTrue.AtVec(i) == 1
		switch {
		case predicted && !actual:
			cost += amount * c.fpCost
		case !predicted && actual:
			cost += amount * c.fnCost
		}
	}
	return cost, nil
}

func applyThreshold(yProba *mat.VecDense, threshold float64) *mat.VecDense {
	labels := mat.NewVecDense(yProba.Len(), nil)
	for i := 0; i < yProba.Len(); i++ {
		if yProba.AtVec(i) > threshold {
			labels.SetVec(i, 1)
		}
	}
	return labels
}

func better(a, b float64, greaterIsBetter bool) bool {
	if greaterIsBetter {
		return a > b
	}
	return a < b
}
