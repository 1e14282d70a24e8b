package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/evalpipe/evalpipe/pkg/errors"
)

// ROCPoint is one point on a receiver operating characteristic curve.
type ROCPoint struct {
	Threshold float64
	FPR       float64
	TPR       float64
}

// ROCCurve computes the ROC curve from positive-class probabilities and
// binary true labels. Points are ordered from threshold 1 down to 0.
func ROCCurve(yProba, yTrue *mat.VecDense) ([]ROCPoint, error) {
	if yProba == nil || yTrue == nil || yProba.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "computing ROC curve")
	}
	if yProba.Len() != yTrue.Len() {
		return nil, errors.NewDimensionError("ROCCurve", yTrue.Len(), yProba.Len(), 0)
	}

	n := yProba.Len()
	var positives, negatives int
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return nil, errors.NewValueError("ROCCurve", "true labels contain only one class")
	}

	// Distinct probabilities, descending, plus a sentinel above the maximum
	// so the curve starts at (0, 0).
	thresholds := make([]float64, 0, n+1)
	seen := make(map[float64]bool, n)
	for i := 0; i < n; i++ {
		p := yProba.AtVec(i)
		if !seen[p] {
			seen[p] = true
			thresholds = append(thresholds, p)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(thresholds)))
	thresholds = append([]float64{thresholds[0] + 1}, thresholds...)

	curve := make([]ROCPoint, 0, len(thresholds))
	for _, threshold := range thresholds {
		var tp, fp int
		for i := 0; i < n; i++ {
			if yProba.AtVec(i) >= threshold {
				if yTrue.AtVec(i) == 1 {
					tp++
				} else {
					fp++
				}
			}
		}
		curve = append(curve, ROCPoint{
			Threshold: threshold,
			FPR:       float64(fp) / float64(negatives),
			TPR:       float64(tp) / float64(positives),
		})
	}
	return curve, nil
}

// FeatureImportancesChart renders the pipeline's feature importances as a
// horizontal bar chart and saves it to filename.
func (p *Pipeline) FeatureImportancesChart(filename string) error {
	importances, err := p.FeatureImportances()
	if err != nil {
		return err
	}

	chart := plot.New()
	chart.Title.Text = p.name
	chart.Y.Label.Text = "Importance"

	values := make(plotter.Values, len(importances))
	names := make([]string, len(importances))
	for i, imp := range importances {
		values[i] = imp.Importance
		names[i] = imp.Feature
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return errors.Wrap(err, "building importance bar chart")
	}
	chart.Add(bars)
	chart.NominalX(names...)

	if err := chart.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "saving chart to %s", filename)
	}
	return nil
}

// ROCChart renders the pipeline's ROC curve on X and y and saves it to
// filename. The pipeline's estimator must support probability estimates.
func (p *Pipeline) ROCChart(X, y mat.Matrix, filename string) error {
	proba, err := p.PredictProba(X)
	if err != nil {
		return err
	}
	curve, err := ROCCurve(columnVector(proba), columnVector(y))
	if err != nil {
		return err
	}

	chart := plot.New()
	chart.Title.Text = p.name
	chart.X.Label.Text = "False Positive Rate"
	chart.Y.Label.Text = "True Positive Rate"

	pts := make(plotter.XYs, len(curve))
	for i, point := range curve {
		pts[i] = plotter.XY{X: point.FPR, Y: point.TPR}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "building ROC line")
	}
	chart.Add(line)

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "building chance line")
	}
	diagonal.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	chart.Add(diagonal)

	if err := chart.Save(5*vg.Inch, 5*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "saving chart to %s", filename)
	}
	return nil
}
