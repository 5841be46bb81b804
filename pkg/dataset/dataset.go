// Package dataset holds the in-memory tabular model and the ingestion layer
// that builds it from raw CSV or JSON bytes of unknown encoding and shape.
package dataset

import (
	"math"
	"math/rand"
	"sort"

	"github.com/spf13/cast"
)

// Format identifies the source file format.
type Format string

const (
	// FormatCSV covers comma- and tab-separated files.
	FormatCSV Format = "csv"
	// FormatJSON covers JSON arrays, NDJSON, and enveloped record shapes.
	FormatJSON Format = "json"
)

// Row maps a normalized column name to a scalar cell: float64, string, bool,
// or nil for a missing value.
type Row map[string]interface{}

// Float64 returns the cell as a float64 when it is numeric or a numeric
// string. Booleans and missing cells are not numeric.
func (r Row) Float64(col string) (float64, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Dataset is an ordered sequence of rows sharing one normalized column set.
// It is read-only after ingestion except for Sample, which replaces the
// working rows with a seeded uniform subsample.
type Dataset struct {
	Columns []string
	Rows    []Row

	// SourceRows is the row count before sampling.
	SourceRows int
	// Sampled reports whether the working set is a subsample.
	Sampled bool

	Encoding           string
	EncodingConfidence int
	Format             Format
}

// RowCount returns the number of working rows.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int {
	return len(d.Columns)
}

// MissingCells counts nil cells across the working rows.
func (d *Dataset) MissingCells() int {
	missing := 0
	for _, row := range d.Rows {
		for _, col := range d.Columns {
			if v, ok := row[col]; !ok || v == nil {
				missing++
			}
		}
	}
	return missing
}

// ColumnValues returns the cells of one column in row order, nil included.
func (d *Dataset) ColumnValues(col string) []interface{} {
	values := make([]interface{}, 0, len(d.Rows))
	for _, row := range d.Rows {
		values = append(values, row[col])
	}
	return values
}

// NumericValues returns the non-null numeric cells of one column in row
// order, plus the count of cells that were missing or non-numeric.
func (d *Dataset) NumericValues(col string) ([]float64, int) {
	values := make([]float64, 0, len(d.Rows))
	skipped := 0
	for _, row := range d.Rows {
		f, ok := row.Float64(col)
		if !ok {
			skipped++
			continue
		}
		values = append(values, f)
	}
	return values, skipped
}

// Sample replaces the working rows with a uniform random subsample of at most
// ceiling rows, drawn without replacement with the given seed. Row order is
// preserved. A dataset at or under the ceiling is left untouched.
func (d *Dataset) Sample(ceiling int, seed int64) {
	if ceiling <= 0 || len(d.Rows) <= ceiling {
		return
	}

	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(len(d.Rows))[:ceiling]
	sort.Ints(picked)

	sampled := make([]Row, 0, ceiling)
	for _, idx := range picked {
		sampled = append(sampled, d.Rows[idx])
	}

	d.Rows = sampled
	d.Sampled = true
}
