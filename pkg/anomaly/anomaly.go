// Package anomaly scores rows as normal or anomalous across all numeric
// features without labels. Scores are mean squared robust z-scores
// (median/MAD per feature), and the contamination threshold adapts to the
// score distribution: a row is anomalous above Q3 + 1.5*IQR of the scores,
// with a fixed top-quantile fallback when that rule degenerates. This is the
// explicit statistical rule standing in for an opaque detector default.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
	"github.com/datasleuth/datasleuth/pkg/features"
)

// RowSample is one flagged row retained for display, most anomalous first.
type RowSample struct {
	RowIndex int                    `json:"row_index"`
	Score    float64                `json:"score"`
	Values   map[string]interface{} `json:"values"`
}

// Result is the anomaly stage output. On scoring failure it degrades to an
// explicit error entry instead of aborting the report.
type Result struct {
	Enabled    bool        `json:"enabled"`
	Reason     string      `json:"reason,omitempty"`
	TotalCount int         `json:"total_count"`
	Pct        string      `json:"pct"`
	Threshold  float64     `json:"threshold,omitempty"`
	Top5       []RowSample `json:"top_5_anomalies"`
	Top3       []RowSample `json:"top_3_anomalies"`
	Error      string      `json:"error,omitempty"`
}

// Detector runs the anomaly stage.
type Detector struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a Detector.
func New(cfg *config.Config, logger *zap.Logger) *Detector {
	return &Detector{cfg: cfg, logger: logger}
}

// Run scores every row and flags the anomalous ones.
func (d *Detector) Run(ds *dataset.Dataset, numericCols []string) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("anomaly scoring failed", zap.Any("panic", r))
			result = &Result{Error: fmt.Sprintf("anomaly scoring failed: %v", r), Pct: "0.00%"}
		}
	}()

	n := ds.RowCount()
	if n < d.cfg.AnomalyMinRows {
		return &Result{
			Reason: fmt.Sprintf("too few rows for anomaly detection (%d < %d)", n, d.cfg.AnomalyMinRows),
			Pct:    "0.00%",
			Top5:   []RowSample{},
			Top3:   []RowSample{},
		}
	}

	matrix := features.Build(ds, numericCols, d.cfg.MaxClusterFeatures)
	if matrix == nil {
		return &Result{
			Reason: "no numeric features available for anomaly detection",
			Pct:    "0.00%",
			Top5:   []RowSample{},
			Top3:   []RowSample{},
		}
	}

	scores := robustScores(matrix)
	threshold, flagged := d.applyThreshold(scores)

	sort.Slice(flagged, func(i, j int) bool {
		if scores[flagged[i]] != scores[flagged[j]] {
			return scores[flagged[i]] > scores[flagged[j]]
		}
		return flagged[i] < flagged[j]
	})

	top5 := make([]RowSample, 0, d.cfg.TopAnomalies)
	for _, idx := range flagged {
		if len(top5) == d.cfg.TopAnomalies {
			break
		}
		values := make(map[string]interface{}, len(matrix.Columns))
		for _, col := range matrix.Columns {
			values[col] = ds.Rows[idx][col]
		}
		top5 = append(top5, RowSample{
			RowIndex: idx,
			Score:    math.Round(scores[idx]*10000) / 10000,
			Values:   values,
		})
	}

	top3 := top5
	if len(top3) > 3 {
		top3 = top5[:3]
	}

	return &Result{
		Enabled:    true,
		TotalCount: len(flagged),
		Pct:        fmt.Sprintf("%.2f%%", float64(len(flagged))/float64(n)*100),
		Threshold:  math.Round(threshold*10000) / 10000,
		Top5:       top5,
		Top3:       top3,
	}
}

// applyThreshold flags scores above Q3 + 1.5*IQR; when the quartiles
// degenerate or flag nothing it falls back to the configured top quantile.
func (d *Detector) applyThreshold(scores []float64) (float64, []int) {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1

	threshold := q3 + 1.5*iqr
	flagged := indicesAbove(scores, threshold)

	if iqr == 0 || len(flagged) == 0 {
		threshold = stat.Quantile(1-d.cfg.ContaminationFallback, stat.Empirical, sorted, nil)
		flagged = indicesAbove(scores, threshold)
	}

	return threshold, flagged
}

// robustScores computes each row's mean squared robust z-score across the
// feature columns. MAD of zero falls back to the standard deviation; a
// feature with neither spread contributes nothing.
func robustScores(matrix *features.Matrix) []float64 {
	n := len(matrix.Raw)
	cols := len(matrix.Columns)

	medians := make([]float64, cols)
	spreads := make([]float64, cols)
	column := make([]float64, n)

	for j := 0; j < cols; j++ {
		for i := range matrix.Raw {
			column[i] = matrix.Raw[i][j]
		}
		sorted := append([]float64(nil), column...)
		sort.Float64s(sorted)
		medians[j] = stat.Quantile(0.5, stat.Empirical, sorted, nil)

		deviations := make([]float64, n)
		for i, v := range column {
			deviations[i] = math.Abs(v - medians[j])
		}
		sort.Float64s(deviations)
		// 1.4826 rescales MAD to the stddev of a normal distribution.
		mad := 1.4826 * stat.Quantile(0.5, stat.Empirical, deviations, nil)
		if mad == 0 && n > 1 {
			mad = stat.StdDev(column, nil)
		}
		if math.IsNaN(mad) {
			mad = 0
		}
		spreads[j] = mad
	}

	scores := make([]float64, n)
	for i, row := range matrix.Raw {
		total := 0.0
		used := 0
		for j, v := range row {
			if spreads[j] == 0 {
				continue
			}
			z := (v - medians[j]) / spreads[j]
			total += z * z
			used++
		}
		if used > 0 {
			scores[i] = total / float64(used)
		}
	}
	return scores
}

func indicesAbove(scores []float64, threshold float64) []int {
	flagged := make([]int, 0)
	for i, s := range scores {
		if s > threshold {
			flagged = append(flagged, i)
		}
	}
	return flagged
}
