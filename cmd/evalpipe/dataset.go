package main

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/pkg/errors"
)

// Dataset holds a feature matrix, target vector, and feature names loaded
// from a CSV file.
type Dataset struct {
	X            *mat.Dense
	Y            *mat.Dense
	FeatureNames []string
}

// LoadCSV reads a headed CSV file into a Dataset, taking targetColumn as
// the target and every other column as a feature. Empty cells become NaN
// so an imputer can fill them.
func LoadCSV(path, targetColumn string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(records) < 2 {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv needs a header and at least one row")
	}

	header := records[0]
	targetIdx := -1
	featureNames := make([]string, 0, len(header)-1)
	for i, name := range header {
		if name == targetColumn {
			targetIdx = i
			continue
		}
		featureNames = append(featureNames, name)
	}
	if targetIdx < 0 {
		return nil, errors.NewValidationError("target_column", "column not found in csv header", targetColumn)
	}

	rows := len(records) - 1
	cols := len(header) - 1
	X := mat.NewDense(rows, cols, nil)
	Y := mat.NewDense(rows, 1, nil)

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, errors.NewDimensionError("LoadCSV", len(header), len(record), 1)
		}
		col := 0
		for j, cell := range record {
			value, err := parseCell(cell)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %q", i+2, header[j])
			}
			if j == targetIdx {
				Y.Set(i, 0, value)
			} else {
				X.Set(i, col, value)
				col++
			}
		}
	}

	return &Dataset{X: X, Y: Y, FeatureNames: featureNames}, nil
}

func parseCell(cell string) (float64, error) {
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
