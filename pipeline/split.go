package pipeline

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/pkg/errors"
)

// TrainTestSplit shuffles rows of X and y with the given seed and splits
// them into train and test partitions. testFraction is the share of rows
// assigned to the test partition; at least one row lands on each side.
func TrainTestSplit(X, y mat.Matrix, testFraction float64, seed int64) (XTrain, XTest, yTrain, yTest mat.Matrix, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("test_fraction", "must be in (0, 1)", testFraction)
	}

	r, c := X.Dims()
	ry, cy := y.Dims()
	if ry != r {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", r, ry, 0)
	}
	if r < 2 {
		return nil, nil, nil, nil, errors.Wrap(errors.ErrEmptyData, "need at least two rows to split")
	}

	nTest := int(float64(r) * testFraction)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= r {
		nTest = r - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(r)

	XTestD := mat.NewDense(nTest, c, nil)
	yTestD := mat.NewDense(nTest, cy, nil)
	XTrainD := mat.NewDense(r-nTest, c, nil)
	yTrainD := mat.NewDense(r-nTest, cy, nil)

	copyRow := func(dst *mat.Dense, dstRow int, src mat.Matrix, srcRow, cols int) {
		for j := 0; j < cols; j++ {
			dst.Set(dstRow, j, src.At(srcRow, j))
		}
	}

	for i, row := range perm {
		if i < nTest {
			copyRow(XTestD, i, X, row, c)
			copyRow(yTestD, i, y, row, cy)
		} else {
			copyRow(XTrainD, i-nTest, X, row, c)
			copyRow(yTrainD, i-nTest, y, row, cy)
		}
	}

	return XTrainD, XTestD, yTrainD, yTestD, nil
}
