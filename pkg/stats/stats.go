// Package stats computes the descriptive layer of the report: per-column
// summaries, variance-capped Pearson correlations, half-split trends, and IQR
// outlier counts.
package stats

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
)

// ColumnStats summarizes one numeric column, nulls ignored.
type ColumnStats struct {
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Missing int     `json:"missing"`
}

// Analyzer runs the descriptive statistics stage.
type Analyzer struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates an Analyzer.
func New(cfg *config.Config, logger *zap.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, logger: logger}
}

// Describe summarizes every numeric column. A column that errors reports
// zeros rather than aborting the stage.
func (a *Analyzer) Describe(ds *dataset.Dataset, numericCols []string) map[string]ColumnStats {
	described := make(map[string]ColumnStats, len(numericCols))
	for _, col := range numericCols {
		described[col] = a.describeColumn(ds, col)
	}
	return described
}

func (a *Analyzer) describeColumn(ds *dataset.Dataset, col string) (cs ColumnStats) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("describe failed for column, reporting zeros",
				zap.String("column", col), zap.Any("panic", r))
			cs = ColumnStats{}
		}
	}()

	values, missing := ds.NumericValues(col)
	cs = ColumnStats{Missing: missing}
	if len(values) == 0 {
		return cs
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	cs.Mean = finite(stat.Mean(values, nil))
	cs.Median = finite(stat.Quantile(0.5, stat.Empirical, sorted, nil))
	cs.Min = floats.Min(sorted)
	cs.Max = floats.Max(sorted)
	if len(values) > 1 {
		cs.Std = finite(stat.StdDev(values, nil))
	}
	return cs
}

// Correlations restricts the pairwise Pearson pass to the highest-variance
// columns and keeps only pairs at or above the configured floor, rounded to
// four decimals.
func (a *Analyzer) Correlations(ds *dataset.Dataset, numericCols []string) map[string]float64 {
	ranked := a.rankByVariance(ds, numericCols)
	if len(ranked) > a.cfg.MaxCorrelationColumns {
		ranked = ranked[:a.cfg.MaxCorrelationColumns]
	}

	correlations := make(map[string]float64)
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			x, y := alignedPair(ds, ranked[i], ranked[j])
			if len(x) < 2 {
				continue
			}
			r := stat.Correlation(x, y, nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			if math.Abs(r) >= a.cfg.CorrelationFloor {
				key := fmt.Sprintf("%s vs %s", ranked[i], ranked[j])
				correlations[key] = math.Round(r*10000) / 10000
			}
		}
	}
	return correlations
}

// Trends compares second-half vs first-half means in row order and reports a
// signed percentage change when it clears the floor.
func (a *Analyzer) Trends(ds *dataset.Dataset, numericCols []string) map[string]string {
	trends := make(map[string]string)
	for _, col := range numericCols {
		values, _ := ds.NumericValues(col)
		if len(values) < 2 {
			continue
		}

		half := len(values) / 2
		firstMean := stat.Mean(values[:half], nil)
		secondMean := stat.Mean(values[half:], nil)
		if firstMean == 0 {
			continue
		}

		pct := (secondMean - firstMean) / math.Abs(firstMean) * 100
		if math.Abs(pct) >= a.cfg.TrendFloor {
			trends[col] = fmt.Sprintf("%+.1f%%", pct)
		}
	}
	return trends
}

// Outliers counts values outside the IQR fences per column. Columns need the
// configured minimum of non-null values, and a zero IQR skips the column.
func (a *Analyzer) Outliers(ds *dataset.Dataset, numericCols []string) map[string]int {
	outliers := make(map[string]int)
	for _, col := range numericCols {
		values, _ := ds.NumericValues(col)
		if len(values) < a.cfg.OutlierMinValues {
			continue
		}

		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
		iqr := q3 - q1
		if iqr == 0 {
			continue
		}

		lower, upper := q1-1.5*iqr, q3+1.5*iqr
		count := 0
		for _, v := range values {
			if v < lower || v > upper {
				count++
			}
		}
		if count > 0 {
			outliers[col] = count
		}
	}
	return outliers
}

// rankByVariance orders columns by descending variance, name ascending on ties.
func (a *Analyzer) rankByVariance(ds *dataset.Dataset, cols []string) []string {
	type colVariance struct {
		name     string
		variance float64
	}

	ranked := make([]colVariance, 0, len(cols))
	for _, col := range cols {
		values, _ := ds.NumericValues(col)
		if len(values) < 2 {
			continue
		}
		v := stat.Variance(values, nil)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ranked = append(ranked, colVariance{col, v})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].variance != ranked[j].variance {
			return ranked[i].variance > ranked[j].variance
		}
		return ranked[i].name < ranked[j].name
	})

	names := make([]string, len(ranked))
	for i, cv := range ranked {
		names[i] = cv.name
	}
	return names
}

// alignedPair collects rows where both columns hold numeric values.
func alignedPair(ds *dataset.Dataset, colX, colY string) ([]float64, []float64) {
	x := make([]float64, 0, ds.RowCount())
	y := make([]float64, 0, ds.RowCount())
	for _, row := range ds.Rows {
		vx, okX := row.Float64(colX)
		vy, okY := row.Float64(colY)
		if okX && okY {
			x = append(x, vx)
			y = append(y, vy)
		}
	}
	return x, y
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
