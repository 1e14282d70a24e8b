package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/pkg/errors"
)

// validatePair checks the common preconditions for binary metrics.
func validatePair(op string, yTrue, yPred *mat.VecDense) error {
	if yTrue == nil || yTrue.Len() == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if yPred == nil || yPred.Len() != yTrue.Len() {
		got := 0
		if yPred != nil {
			got = yPred.Len()
		}
		return errors.NewDimensionError(op, yTrue.Len(), got, 0)
	}
	return nil
}

func validateBinaryLabels(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		v := y.AtVec(i)
		if v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be binary (0 or 1)")
		}
	}
	return nil
}

// confusion counts the binary confusion matrix entries.
func confusion(yTrue, yPred *mat.VecDense) (tp, tn, fp, fn float64) {
	for i := 0; i < yTrue.Len(); i++ {
		t := yTrue.AtVec(i) == 1
		p := yPred.AtVec(i) == 1
		switch {
		case t && p:
			tp++
		case !t && !p:
			tn++
		case !t && p:
			fp++
		default:
			fn++
		}
	}
	return
}

// Accuracy computes the fraction of correctly predicted labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validatePair("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}
	var correct float64
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return correct / float64(yTrue.Len()), nil
}

// Precision computes TP / (TP + FP) for binary labels. When no positive
// predictions were made the metric is undefined; a warning is raised and 0
// is returned.
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validatePair("Precision", yTrue, yPred); err != nil {
		return 0, err
	}
	if err := validateBinaryLabels("Precision", yTrue); err != nil {
		return 0, err
	}
	if err := validateBinaryLabels("Precision", yPred); err != nil {
		return 0, err
	}
	tp, _, fp, _ := confusion(yTrue, yPred)
	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("Precision", "no predicted positives", 0))
		return 0, nil
	}
	return tp / (tp + fp), nil
}

// Recall computes TP / (TP + FN) for binary labels. When no true positives
// exist the metric is undefined; a warning is raised and 0 is returned.
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validatePair("Recall", yTrue, yPred); err != nil {
		return 0, err
	}
	if err := validateBinaryLabels("Recall", yTrue); err != nil {
		return 0, err
	}
	if err := validateBinaryLabels("Recall", yPred); err != nil {
		return 0, err
	}
	tp, _, _, fn := confusion(yTrue, yPred)
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("Recall", "no true positives", 0))
		return 0, nil
	}
	return tp / (tp + fn), nil
}

// F1 computes the harmonic mean of precision and recall for binary labels.
func F1(yTrue, yPred *mat.VecDense) (float64, error) {
	precision, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	recall, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if precision+recall == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("F1", "precision and recall are both zero", 0))
		return 0, nil
	}
	return 2 * precision * recall / (precision + recall), nil
}

// LogLoss computes the negative log-likelihood of binary labels given
// predicted probabilities. Probabilities are clipped to avoid log(0).
func LogLoss(yTrue, yProba *mat.VecDense) (float64, error) {
	if err := validatePair("LogLoss", yTrue, yProba); err != nil {
		return 0, err
	}
	if err := validateBinaryLabels("LogLoss", yTrue); err != nil {
		return 0, err
	}

	const eps = 1e-15
	var sum float64
	for i := 0; i < yTrue.Len(); i++ {
		p := math.Min(math.Max(yProba.AtVec(i), eps), 1-eps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(yTrue.Len()), nil
}

// AUC computes the area under the ROC curve from binary labels and
// predicted scores. Tied scores contribute half credit. When only one class
// is present the metric is undefined; a warning is raised and 0.5 is
// returned.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	if err := validatePair("AUC", yTrue, yScore); err != nil {
		return 0, err
	}
	if err := validateBinaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	var nPos, nNeg float64
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present", 0.5))
		return 0.5, nil
	}

	// Mann-Whitney statistic over all positive/negative pairs.
	var credit float64
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) != 1 {
			continue
		}
		for j := 0; j < yTrue.Len(); j++ {
			if yTrue.AtVec(j) != 0 {
				continue
			}
			switch {
			case yScore.AtVec(i) > yScore.AtVec(j):
				credit += 1
			case yScore.AtVec(i) == yScore.AtVec(j):
				credit += 0.5
			}
		}
	}
	return credit / (nPos * nNeg), nil
}

// MCC computes the Matthews correlation coefficient for binary labels.
// When any confusion margin is empty the metric is undefined; a warning is
// raised and 0 is returned.
func MCC(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validatePair("MCC", yTrue, yPred); err != nil {
		return 0, err
	}
	if err := validateBinaryLabels("MCC", yTrue); err != nil {
		return 0, err
	}
	if err := validateBinaryLabels("MCC", yPred); err != nil {
		return 0, err
	}

	tp, tn, fp, fn := confusion(yTrue, yPred)
	denom := math.Sqrt((tp + fp) * (tp + fn) * (tn + fp) * (tn + fn))
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("MCC", "empty confusion margin", 0))
		return 0, nil
	}
	return (tp*tn - fp*fn) / denom, nil
}
