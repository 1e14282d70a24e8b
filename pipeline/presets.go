package pipeline

import (
	"github.com/evalpipe/evalpipe/components"
	"github.com/evalpipe/evalpipe/objectives"
)

// NewLogisticRegressionPipeline builds the standard binary classification
// pipeline: imputation, scaling, and a logistic regression estimator.
func NewLogisticRegressionPipeline(objective objectives.Objective, opts ...Option) (*Pipeline, error) {
	return New(objective, []components.Stage{
		components.SimpleImputerComponent(),
		components.StandardScalerComponent(),
		components.LogisticRegressionEstimator(),
	}, opts...)
}

// NewLinearRegressionPipeline builds the standard regression pipeline:
// imputation, scaling, and a linear regression estimator.
func NewLinearRegressionPipeline(objective objectives.Objective, opts ...Option) (*Pipeline, error) {
	return New(objective, []components.Stage{
		components.SimpleImputerComponent(),
		components.StandardScalerComponent(),
		components.LinearRegressionEstimator(),
	}, opts...)
}

// NewSelectKBestPipeline builds a classification pipeline with univariate
// feature selection between scaling and the estimator.
func NewSelectKBestPipeline(objective objectives.Objective, k int, opts ...Option) (*Pipeline, error) {
	return New(objective, []components.Stage{
		components.SimpleImputerComponent(),
		components.StandardScalerComponent(),
		components.SelectKBestComponent(k),
		components.LogisticRegressionEstimator(),
	}, opts...)
}
