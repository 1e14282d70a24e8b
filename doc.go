// Package evalpipe provides machine learning pipelines for Go, built from
// reusable transformer and estimator components.
//
// A pipeline is an ordered sequence of components that ends in an estimator.
// Fitting a pipeline threads the training data through every transformer,
// fits the estimator on the result, and optionally tunes the objective on a
// held-out split. Prediction and scoring replay the same transform chain.
//
// # Quick Start
//
// Train a binary classification pipeline and score it against F1 plus
// additional objectives:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/evalpipe/evalpipe/objectives"
//	    "github.com/evalpipe/evalpipe/pipeline"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 2, []float64{1, 2, 2, 1, 8, 9, 9, 8})
//	    y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
//
//	    p, err := pipeline.NewLogisticRegressionPipeline(objectives.MustGet("f1"))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := p.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    score, _, err := p.Score(X, y)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(p.Name(), score)
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - pipeline: the pipeline base, presets, train/test splitting, plots
//   - components: the component wrapper plus built-in transformers and estimators
//   - objectives: named scoring objectives with evaluation flags and a registry
//   - metrics: classification and regression metric functions
//   - core/model: capability interfaces and fitted-state management
//   - pkg/errors: structured errors and warnings
//   - pkg/log: structured logging interfaces and providers
package evalpipe
