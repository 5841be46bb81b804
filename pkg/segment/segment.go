// Package segment partitions dataset rows into behavioral segments using
// k-means over standardized numeric features, with the cluster count chosen
// automatically by silhouette score.
package segment

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
	"github.com/datasleuth/datasleuth/pkg/features"
)

// Summary describes one segment for the report.
type Summary struct {
	Size       int                `json:"size"`
	Pct        string             `json:"pct"`
	AvgMetrics map[string]float64 `json:"avg_metrics"`
}

// Result is the segmentation stage output: either populated segments or an
// explicit reason why clustering was skipped.
type Result struct {
	Enabled    bool               `json:"enabled"`
	Reason     string             `json:"reason,omitempty"`
	K          int                `json:"k,omitempty"`
	Silhouette float64            `json:"silhouette,omitempty"`
	Features   []string           `json:"features,omitempty"`
	Segments   map[string]Summary `json:"segments,omitempty"`

	// Assignments maps row index to segment id; kept out of the report body.
	Assignments []int `json:"-"`
}

// Segmenter runs the segmentation stage.
type Segmenter struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a Segmenter.
func New(cfg *config.Config, logger *zap.Logger) *Segmenter {
	return &Segmenter{cfg: cfg, logger: logger}
}

// Run clusters the dataset rows, choosing k in [2, min(MaxClusters, n-1)] by
// silhouette score on a seeded subsample. All randomized steps share the one
// configured seed, so reruns on the same input are identical.
func (s *Segmenter) Run(ds *dataset.Dataset, numericCols []string) *Result {
	n := ds.RowCount()
	if n < s.cfg.ClusterMinRows {
		return &Result{Reason: fmt.Sprintf("too few rows for clustering (%d < %d)", n, s.cfg.ClusterMinRows)}
	}

	matrix := features.Build(ds, numericCols, s.cfg.MaxClusterFeatures)
	if matrix == nil {
		return &Result{Reason: "no numeric features available for clustering"}
	}

	maxK := s.cfg.MaxClusters
	if n-1 < maxK {
		maxK = n - 1
	}

	bestK := 0
	bestScore := math.Inf(-1)
	var bestLabels []int

	for k := 2; k <= maxK; k++ {
		labels := kMeans(matrix.Scaled, k, s.cfg.Seed, s.cfg.KMeansMaxIterations)
		if distinctLabels(labels) < 2 {
			continue
		}

		score := silhouetteScore(matrix.Scaled, labels, s.cfg.SilhouetteSampleCap, s.cfg.Seed)
		if math.IsNaN(score) {
			continue
		}

		s.logger.Debug("evaluated cluster count",
			zap.Int("k", k), zap.Float64("silhouette", score))

		if score > bestScore {
			bestK, bestScore, bestLabels = k, score, labels
		}
	}

	if bestK == 0 {
		return &Result{Reason: "no cluster count produced a valid partition"}
	}

	return &Result{
		Enabled:     true,
		K:           bestK,
		Silhouette:  math.Round(bestScore*10000) / 10000,
		Features:    matrix.Columns,
		Segments:    s.summarize(matrix, bestLabels, bestK, n),
		Assignments: bestLabels,
	}
}

// summarize builds per-segment size, population share, and raw feature means.
func (s *Segmenter) summarize(matrix *features.Matrix, labels []int, k, total int) map[string]Summary {
	segments := make(map[string]Summary, k)

	for c := 0; c < k; c++ {
		memberRows := make([][]float64, 0)
		for i, label := range labels {
			if label == c {
				memberRows = append(memberRows, matrix.Raw[i])
			}
		}
		if len(memberRows) == 0 {
			continue
		}

		avg := make(map[string]float64, len(matrix.Columns))
		column := make([]float64, len(memberRows))
		for j, col := range matrix.Columns {
			for i, row := range memberRows {
				column[i] = row[j]
			}
			avg[col] = stat.Mean(column, nil)
		}

		segments[fmt.Sprintf("Segment_%d", c+1)] = Summary{
			Size:       len(memberRows),
			Pct:        fmt.Sprintf("%.1f%%", float64(len(memberRows))/float64(total)*100),
			AvgMetrics: avg,
		}
	}

	return segments
}

func distinctLabels(labels []int) int {
	seen := make(map[int]bool)
	for _, label := range labels {
		seen[label] = true
	}
	return len(seen)
}
