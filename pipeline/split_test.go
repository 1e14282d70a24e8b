package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTrainTestSplitSizes(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)

	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y, 0.2, 42)
	require.NoError(t, err)

	rTrain, c := XTrain.Dims()
	rTest, _ := XTest.Dims()
	assert.Equal(t, 8, rTrain)
	assert.Equal(t, 2, rTest)
	assert.Equal(t, 2, c)

	ryTrain, _ := yTrain.Dims()
	ryTest, _ := yTest.Dims()
	assert.Equal(t, 8, ryTrain)
	assert.Equal(t, 2, ryTest)
}

func TestTrainTestSplitKeepsRowsAligned(t *testing.T) {
	// y mirrors the first column of X, so alignment survives shuffling.
	X := mat.NewDense(8, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7})
	y := mat.NewDense(8, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7})

	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y, 0.25, 1)
	require.NoError(t, err)

	rTrain, _ := XTrain.Dims()
	for i := 0; i < rTrain; i++ {
		assert.Equal(t, XTrain.At(i, 0), yTrain.At(i, 0), "train row %d", i)
	}
	rTest, _ := XTest.Dims()
	for i := 0; i < rTest; i++ {
		assert.Equal(t, XTest.At(i, 0), yTest.At(i, 0), "test row %d", i)
	}
}

func TestTrainTestSplitCoversAllRows(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 3, 4, 5})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	XTrain, XTest, _, _, err := TrainTestSplit(X, y, 0.5, 3)
	require.NoError(t, err)

	seen := make(map[float64]int)
	rTrain, _ := XTrain.Dims()
	for i := 0; i < rTrain; i++ {
		seen[XTrain.At(i, 0)]++
	}
	rTest, _ := XTest.Dims()
	for i := 0; i < rTest; i++ {
		seen[XTest.At(i, 0)]++
	}

	require.Len(t, seen, 6)
	for v, count := range seen {
		assert.Equal(t, 1, count, "row %v", v)
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	X := mat.NewDense(10, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	y := mat.NewDense(10, 1, nil)

	_, XTest1, _, _, err := TrainTestSplit(X, y, 0.3, 99)
	require.NoError(t, err)
	_, XTest2, _, _, err := TrainTestSplit(X, y, 0.3, 99)
	require.NoError(t, err)

	assert.True(t, mat.Equal(XTest1, XTest2))
}

func TestTrainTestSplitValidation(t *testing.T) {
	X := mat.NewDense(4, 1, nil)
	y := mat.NewDense(4, 1, nil)

	_, _, _, _, err := TrainTestSplit(X, y, 0, 1)
	require.Error(t, err)

	_, _, _, _, err = TrainTestSplit(X, y, 1, 1)
	require.Error(t, err)

	yBad := mat.NewDense(3, 1, nil)
	_, _, _, _, err = TrainTestSplit(X, yBad, 0.5, 1)
	require.Error(t, err)

	one := mat.NewDense(1, 1, nil)
	_, _, _, _, err = TrainTestSplit(one, mat.NewDense(1, 1, nil), 0.5, 1)
	require.Error(t, err)
}

func TestTrainTestSplitAtLeastOneRowEachSide(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{0, 1, 0})

	XTrain, XTest, _, _, err := TrainTestSplit(X, y, 0.01, 5)
	require.NoError(t, err)

	rTrain, _ := XTrain.Dims()
	rTest, _ := XTest.Dims()
	assert.Equal(t, 2, rTrain)
	assert.Equal(t, 1, rTest)
}
