// Package features builds the numeric feature matrix shared by the
// segmentation and anomaly engines: variance-capped column selection, mean
// imputation of missing and infinite cells, and standardization.
package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/datasleuth/datasleuth/pkg/dataset"
)

// Matrix is a row-major numeric view of a dataset restricted to the selected
// feature columns. Raw carries imputed original values, Scaled the
// standardized copy used for distance computations.
type Matrix struct {
	Columns []string
	Raw     [][]float64
	Scaled  [][]float64
	Means   []float64
}

// Build selects up to maxFeatures numeric columns by descending variance,
// imputes missing and infinite cells with the column mean, and standardizes.
// Returns nil when no column has usable values.
func Build(ds *dataset.Dataset, numericCols []string, maxFeatures int) *Matrix {
	type candidate struct {
		name     string
		mean     float64
		variance float64
	}

	candidates := make([]candidate, 0, len(numericCols))
	for _, col := range numericCols {
		values := finiteValues(ds, col)
		if len(values) == 0 {
			continue
		}
		mean := stat.Mean(values, nil)
		variance := 0.0
		if len(values) > 1 {
			variance = stat.Variance(values, nil)
		}
		if math.IsNaN(variance) || math.IsInf(variance, 0) {
			continue
		}
		candidates = append(candidates, candidate{col, mean, variance})
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].variance != candidates[j].variance {
			return candidates[i].variance > candidates[j].variance
		}
		return candidates[i].name < candidates[j].name
	})
	if maxFeatures > 0 && len(candidates) > maxFeatures {
		candidates = candidates[:maxFeatures]
	}

	m := &Matrix{
		Columns: make([]string, len(candidates)),
		Means:   make([]float64, len(candidates)),
	}
	for i, c := range candidates {
		m.Columns[i] = c.name
		m.Means[i] = c.mean
	}

	n := ds.RowCount()
	m.Raw = make([][]float64, n)
	for i, row := range ds.Rows {
		cells := make([]float64, len(m.Columns))
		for j, col := range m.Columns {
			v, ok := row.Float64(col)
			if !ok || math.IsInf(v, 0) || math.IsNaN(v) {
				v = m.Means[j]
			}
			cells[j] = v
		}
		m.Raw[i] = cells
	}

	m.Scaled = standardize(m.Raw)
	return m
}

// standardize scales each column to zero mean and unit variance. A
// zero-variance column standardizes to all zeros.
func standardize(raw [][]float64) [][]float64 {
	if len(raw) == 0 {
		return nil
	}
	cols := len(raw[0])

	means := make([]float64, cols)
	stds := make([]float64, cols)
	column := make([]float64, len(raw))
	for j := 0; j < cols; j++ {
		for i := range raw {
			column[i] = raw[i][j]
		}
		means[j] = stat.Mean(column, nil)
		if len(column) > 1 {
			stds[j] = stat.StdDev(column, nil)
		}
		if math.IsNaN(stds[j]) || stds[j] == 0 {
			stds[j] = 0
		}
	}

	scaled := make([][]float64, len(raw))
	for i := range raw {
		cells := make([]float64, cols)
		for j := 0; j < cols; j++ {
			if stds[j] == 0 {
				cells[j] = 0
				continue
			}
			cells[j] = (raw[i][j] - means[j]) / stds[j]
		}
		scaled[i] = cells
	}
	return scaled
}

// finiteValues collects the finite numeric cells of one column.
func finiteValues(ds *dataset.Dataset, col string) []float64 {
	values, _ := ds.NumericValues(col)
	finite := values[:0]
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		finite = append(finite, v)
	}
	return finite
}
