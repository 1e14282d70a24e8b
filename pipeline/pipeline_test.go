package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/components"
	"github.com/evalpipe/evalpipe/objectives"
	"github.com/evalpipe/evalpipe/pkg/errors"
	"github.com/evalpipe/evalpipe/pkg/log"
)

// separableData returns a linearly separable binary problem.
func separableData(t *testing.T) (mat.Matrix, mat.Matrix) {
	t.Helper()
	X := mat.NewDense(20, 1, []float64{
		-10, -9, -8, -7, -6, -5, -4, -3, -2, -1,
		1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
	})
	y := mat.NewDense(20, 1, []float64{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	})
	return X, y
}

func classificationStages() []components.Stage {
	return []components.Stage{
		components.SimpleImputerComponent(),
		components.StandardScalerComponent(),
		components.LogisticRegressionEstimator(components.WithMaxIter(5000)),
	}
}

func TestNewRequiresTerminalEstimator(t *testing.T) {
	objective := objectives.MustGet("accuracy")

	_, err := New(objective, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoEstimator))

	_, err = New(objective, []components.Stage{
		components.SimpleImputerComponent(),
		components.StandardScalerComponent(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoEstimator))
}

func TestNewRejectsEstimatorInMiddle(t *testing.T) {
	_, err := New(objectives.MustGet("accuracy"), []components.Stage{
		components.LogisticRegressionEstimator(),
		components.LogisticRegressionEstimator(),
	})
	require.Error(t, err)
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestNewRejectsNilObjective(t *testing.T) {
	_, err := New(nil, classificationStages())
	require.Error(t, err)
}

func TestGenerateName(t *testing.T) {
	tests := []struct {
		name   string
		stages []components.Stage
		want   string
	}{
		{
			name:   "estimator only",
			stages: []components.Stage{components.LogisticRegressionEstimator()},
			want:   "Logistic Regression",
		},
		{
			name: "one transformer",
			stages: []components.Stage{
				components.StandardScalerComponent(),
				components.LinearRegressionEstimator(),
			},
			want: "Linear Regression w/ Standard Scaler",
		},
		{
			name:   "full chain",
			stages: classificationStages(),
			want:   "Logistic Regression w/ Simple Imputer + Standard Scaler",
		},
		{
			name: "with feature selection",
			stages: []components.Stage{
				components.SimpleImputerComponent(),
				components.StandardScalerComponent(),
				components.SelectKBestComponent(2),
				components.LogisticRegressionEstimator(),
			},
			want: "Logistic Regression w/ Simple Imputer + Standard Scaler + Select K Best",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateName(tt.stages))

			p, err := New(objectives.MustGet("accuracy"), tt.stages)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestPipelinePredictMatchesEstimator(t *testing.T) {
	X, y := separableData(t)

	p, err := New(objectives.MustGet("accuracy"), classificationStages())
	require.NoError(t, err)
	require.False(t, p.IsFitted())

	require.NoError(t, p.Fit(X, y))
	assert.True(t, p.IsFitted())

	pred, err := p.Predict(X)
	require.NoError(t, err)

	// Running the transformers by hand and calling the estimator directly
	// must give the same answer.
	Xt, err := p.GetComponent("Simple Imputer").Transform(X)
	require.NoError(t, err)
	Xt, err = p.GetComponent("Standard Scaler").Transform(Xt)
	require.NoError(t, err)
	direct, err := p.Estimator().Predict(Xt)
	require.NoError(t, err)

	assert.True(t, mat.Equal(pred, direct))
	for i := 0; i < 20; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "row %d", i)
	}
}

func TestPipelineNotFittedErrors(t *testing.T) {
	X, y := separableData(t)
	p, err := New(objectives.MustGet("accuracy"), classificationStages())
	require.NoError(t, err)

	_, predictErr := p.Predict(X)
	require.Error(t, predictErr)
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(predictErr, &nfe))

	_, probaErr := p.PredictProba(X)
	require.Error(t, probaErr)

	_, _, scoreErr := p.Score(X, y)
	require.Error(t, scoreErr)

	_, impErr := p.FeatureImportances()
	require.Error(t, impErr)
}

func TestPipelineFitRejectsMismatchedRows(t *testing.T) {
	p, err := New(objectives.MustGet("accuracy"), classificationStages())
	require.NoError(t, err)

	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(3, 1, []float64{0, 1, 0})
	require.Error(t, p.Fit(X, y))
}

func TestPredictProbaSqueezesBinaryOutput(t *testing.T) {
	X, y := separableData(t)
	p, err := New(objectives.MustGet("accuracy"), classificationStages())
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	proba, err := p.PredictProba(X)
	require.NoError(t, err)

	r, c := proba.Dims()
	assert.Equal(t, 20, r)
	assert.Equal(t, 1, c)

	// The squeezed column holds the positive-class probability.
	assert.Greater(t, proba.At(19, 0), 0.9)
	assert.Less(t, proba.At(0, 0), 0.1)
}

func TestScoreWithAdditionalObjectives(t *testing.T) {
	X, y := separableData(t)
	p, err := New(objectives.MustGet("accuracy"), classificationStages())
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	primary, others, err := p.Score(X, y,
		objectives.MustGet("f1"),
		objectives.MustGet("auc"),
		objectives.MustGet("recall"),
	)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, primary, 1e-9)

	// Extra scores come back in the order requested.
	require.Len(t, others, 3)
	assert.Equal(t, "F1", others[0].Name)
	assert.Equal(t, "AUC", others[1].Name)
	assert.Equal(t, "Recall", others[2].Name)
	assert.InDelta(t, 1.0, others[0].Score, 1e-9)
	assert.InDelta(t, 1.0, others[1].Score, 1e-9)
	assert.InDelta(t, 1.0, others[2].Score, 1e-9)
}

func TestScoreWithoutAdditionalObjectives(t *testing.T) {
	X, y := separableData(t)
	p, err := New(objectives.MustGet("accuracy"), classificationStages())
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	primary, others, err := p.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, primary, 1e-9)
	assert.Nil(t, others)
}

func TestFitWithThresholdTuningObjective(t *testing.T) {
	X, y := separableData(t)

	tuner, err := objectives.NewThresholdTuner(objectives.NewF1())
	require.NoError(t, err)

	p, err := New(tuner, classificationStages(), WithRandomState(7))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	// The tuner fitted on the holdout split during pipeline fitting.
	assert.Greater(t, tuner.Threshold(), 0.0)
	assert.Less(t, tuner.Threshold(), 1.0)

	// Predictions route through the tuned threshold and stay binary.
	pred, err := p.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		v := pred.At(i, 0)
		assert.True(t, v == 0 || v == 1, "row %d", i)
	}

	score, _, err := p.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.5)
}

func TestPipelineParameters(t *testing.T) {
	p, err := New(objectives.MustGet("accuracy"), []components.Stage{
		components.SimpleImputerComponent(components.WithStrategy(components.ImputeMedian)),
		components.LogisticRegressionEstimator(),
	})
	require.NoError(t, err)

	params := p.Parameters()
	assert.Equal(t, "median", params["Simple Imputer__impute_strategy"])
	assert.Contains(t, params, "Logistic Regression__max_iter")
}

func TestPipelineComponentAccessors(t *testing.T) {
	p, err := New(objectives.MustGet("accuracy"), classificationStages())
	require.NoError(t, err)

	assert.NotNil(t, p.GetComponent("Standard Scaler"))
	assert.Nil(t, p.GetComponent("No Such Component"))

	first, err := p.ComponentAt(0)
	require.NoError(t, err)
	assert.Equal(t, "Simple Imputer", first.Name())

	_, err = p.ComponentAt(10)
	require.Error(t, err)

	assert.Len(t, p.Components(), 3)
}

func TestPipelineInputFeatureNames(t *testing.T) {
	X := mat.NewDense(6, 3, []float64{
		1, 0, 5,
		1, 1, 3,
		1, 0, 6,
		1, 1, 2,
		1, 0, 5,
		1, 1, 4,
	})
	y := mat.NewDense(6, 1, []float64{0, 1, 0, 1, 0, 1})

	p, err := New(objectives.MustGet("accuracy"), []components.Stage{
		components.SelectKBestComponent(1),
		components.LogisticRegressionEstimator(components.WithMaxIter(2000)),
	}, WithFeatureNames([]string{"constant", "signal", "noise"}))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	names := p.InputFeatureNames()
	assert.Equal(t, []string{"constant", "signal", "noise"}, names["Select K Best"])
	// The estimator sees only the selected column.
	assert.Equal(t, []string{"signal"}, names["Logistic Regression"])
}

func TestFeatureImportancesSortedByMagnitude(t *testing.T) {
	X := mat.NewDense(8, 2, []float64{
		-4, 1,
		-3, 0,
		-2, 1,
		-1, 0,
		1, 1,
		2, 0,
		3, 1,
		4, 0,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	p, err := New(objectives.MustGet("accuracy"), []components.Stage{
		components.LogisticRegressionEstimator(components.WithMaxIter(5000)),
	}, WithFeatureNames([]string{"signal", "noise"}))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	importances, err := p.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, importances, 2)
	assert.Equal(t, "signal", importances[0].Feature)
	assert.GreaterOrEqual(t,
		abs(importances[0].Importance), abs(importances[1].Importance))
}

func TestPipelineDescribe(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	SetLoggerProvider(provider)
	components.SetLoggerProvider(provider)
	t.Cleanup(func() {
		SetLoggerProvider(nil)
		components.SetLoggerProvider(nil)
	})

	X, y := separableData(t)
	p, err := New(objectives.MustGet("log_loss"), classificationStages())
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	p.Describe()

	logger := provider.Logger()
	assert.True(t, logger.ContainsMessage("Logistic Regression w/ Simple Imputer + Standard Scaler"))
	assert.True(t, logger.ContainsMessage("Objective to Optimize: Log Loss (lower is better)"))
	assert.True(t, logger.ContainsMessage("1. Simple Imputer"))
	assert.True(t, logger.ContainsMessage("3. Logistic Regression"))
}

func TestPresets(t *testing.T) {
	X, y := separableData(t)

	clf, err := NewLogisticRegressionPipeline(objectives.MustGet("f1"))
	require.NoError(t, err)
	assert.Equal(t, "Logistic Regression w/ Simple Imputer + Standard Scaler", clf.Name())
	require.NoError(t, clf.Fit(X, y))

	score, _, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	reg, err := NewLinearRegressionPipeline(objectives.MustGet("r2"))
	require.NoError(t, err)
	assert.Equal(t, "Linear Regression w/ Simple Imputer + Standard Scaler", reg.Name())

	kbest, err := NewSelectKBestPipeline(objectives.MustGet("accuracy"), 1)
	require.NoError(t, err)
	assert.Equal(t,
		"Logistic Regression w/ Simple Imputer + Standard Scaler + Select K Best",
		kbest.Name())
}

func TestRegressionPipelineScore(t *testing.T) {
	// y = 2x + 1 with no noise.
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{3, 5, 7, 9, 11, 13})

	p, err := NewLinearRegressionPipeline(objectives.MustGet("r2"))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	r2, others, err := p.Score(X, y, objectives.MustGet("mse"), objectives.MustGet("mae"))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r2, 1e-6)
	require.Len(t, others, 2)
	assert.Equal(t, "MSE", others[0].Name)
	assert.InDelta(t, 0, others[0].Score, 1e-6)
	assert.Equal(t, "MAE", others[1].Name)
	assert.InDelta(t, 0, others[1].Score, 1e-6)
}
