// Standard attribute keys for pipeline log events. Using these keys keeps
// log output consistent across packages and easy to filter.

package log

// Pipeline and component context.
const (
	// PipelineNameKey identifies the pipeline emitting the event.
	PipelineNameKey = "pipeline.name"

	// ComponentKey identifies the component or package emitting the event.
	ComponentKey = "component.name"

	// ObjectiveKey identifies the objective being optimized or scored.
	ObjectiveKey = "objective.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "predict_proba", "transform", "score"
	OperationKey = "ml.operation"
)

// Data shape.
const (
	// SamplesKey is the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns) in the dataset.
	FeaturesKey = "data.features"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// ScoreKey records a computed objective score.
	ScoreKey = "ml.score"
)
