package objectives

import (
	"github.com/evalpipe/evalpipe/metrics"
)

// NewF1 returns the F1 objective for binary classification.
func NewF1() Objective {
	return &metricObjective{
		flags: flags{name: "F1", greaterIsBetter: true},
		score: metrics.F1,
	}
}

// NewPrecision returns the precision objective for binary classification.
func NewPrecision() Objective {
	return &metricObjective{
		flags: flags{name: "Precision", greaterIsBetter: true},
		score: metrics.Precision,
	}
}

// NewRecall returns the recall objective for binary classification.
func NewRecall() Objective {
	return &metricObjective{
		flags: flags{name: "Recall", greaterIsBetter: true},
		score: metrics.Recall,
	}
}

// NewAccuracy returns the accuracy objective.
func NewAccuracy() Objective {
	return &metricObjective{
		flags: flags{name: "Accuracy", greaterIsBetter: true},
		score: metrics.Accuracy,
	}
}

// NewAUC returns the area-under-ROC objective. Scoring expects probability
// estimates.
func NewAUC() Objective {
	return &metricObjective{
		flags: flags{name: "AUC", greaterIsBetter: true, scoreNeedsProba: true},
		score: metrics.AUC,
	}
}

// NewLogLoss returns the log-loss objective. Scoring expects probability
// estimates; lower is better.
func NewLogLoss() Objective {
	return &metricObjective{
		flags: flags{name: "Log Loss", scoreNeedsProba: true},
		score: metrics.LogLoss,
	}
}

// NewMCC returns the Matthews correlation coefficient objective.
func NewMCC() Objective {
	return &metricObjective{
		flags: flags{name: "MCC", greaterIsBetter: true},
		score: metrics.MCC,
	}
}

// NewR2 returns the coefficient-of-determination objective for regression.
func NewR2() Objective {
	return &metricObjective{
		flags: flags{name: "R2", greaterIsBetter: true},
		score: metrics.R2Score,
	}
}

// NewMSE returns the mean-squared-error objective; lower is better.
func NewMSE() Objective {
	return &metricObjective{
		flags: flags{name: "MSE"},
		score: metrics.MSE,
	}
}

// NewMAE returns the mean-absolute-error objective; lower is better.
func NewMAE() Objective {
	return &metricObjective{
		flags: flags{name: "MAE"},
		score: metrics.MAE,
	}
}
