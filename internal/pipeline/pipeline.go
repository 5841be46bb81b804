// Package pipeline sequences the analysis stages and guarantees a well-formed
// report for every input, however malformed. Stages are value-or-reason:
// clustering, anomaly scoring, and temporal aggregation each disable
// themselves with a readable reason instead of failing the run, and the
// outermost boundary converts any unhandled panic into a safe failure
// response.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/datasleuth/datasleuth/pkg/anomaly"
	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
	"github.com/datasleuth/datasleuth/pkg/insight"
	"github.com/datasleuth/datasleuth/pkg/logger"
	"github.com/datasleuth/datasleuth/pkg/profile"
	"github.com/datasleuth/datasleuth/pkg/report"
	"github.com/datasleuth/datasleuth/pkg/segment"
	"github.com/datasleuth/datasleuth/pkg/stats"
	"github.com/datasleuth/datasleuth/pkg/temporal"
)

// Engine orchestrates one analysis run. Runs share no mutable state: every
// invocation builds its own working dataset and report.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates an Engine.
func New(cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger}
}

// Run analyzes the file at path and always returns a complete report. The
// process-level contract is one JSON object on stdout and a zero exit even on
// analytical failure, so nothing here may panic outward or return an error.
func (e *Engine) Run(ctx context.Context, path, executionID string) (rep *report.Report) {
	start := time.Now()
	rep = report.New(executionID)

	// The CLI hands in a logger already annotated via logger.WithContext, so
	// only per-run fields not present in the context are added here.
	log := e.logger.With(zap.String("path", path))

	defer func() {
		if r := recover(); r != nil {
			log.Error("unhandled panic during analysis", zap.Any("panic", r))
			failed := report.New(executionID)
			failed.Error = fmt.Sprintf("internal error: %v", r)
			failed.Summary = fmt.Sprintf("Analysis failed: %v", r)
			rep = failed
		}
	}()

	ds, err := dataset.Read(path, e.cfg)
	if err != nil {
		log.Warn("ingestion failed", zap.Error(err))
		rep.Error = err.Error()
		rep.Summary = fmt.Sprintf("Could not read input: %v", err)
		return rep
	}

	rep.FileEncoding = ds.Encoding
	rep.RunNotes = append(rep.RunNotes,
		fmt.Sprintf("encoding %s accepted (detector confidence %d%%)", ds.Encoding, ds.EncodingConfidence))

	originalRows := ds.RowCount()
	ds.Sample(e.cfg.SampleRowCeiling, e.cfg.Seed)
	rep.Sampling = report.Sampling{
		Applied:      ds.Sampled,
		OriginalRows: originalRows,
		UsedRows:     ds.RowCount(),
	}
	if ds.Sampled {
		rep.Sampling.Seed = e.cfg.Seed
		rep.RunNotes = append(rep.RunNotes,
			fmt.Sprintf("sampled %d of %d rows (seed %d); all statistics use the sample",
				ds.RowCount(), originalRows, e.cfg.Seed))
	}

	prof := e.timedProfile(ctx, rep, ds)
	numericCols := prof.NumericColumns()

	rep.FileInfo = report.FileInfo{
		Rows:           ds.RowCount(),
		Columns:        ds.ColumnCount(),
		NumericColumns: numericCols,
	}
	rep.DataQuality = prof.Quality
	rep.DataDictionary = report.DataDictionary{Columns: prof.Columns}
	rep.Domain = report.Domain{
		Name:         prof.Domain,
		Confidence:   prof.DomainConfidence,
		TargetMetric: prof.TargetMetric,
	}
	rep.Geo = prof.Geo

	analyzer := stats.New(e.cfg, e.logger)
	e.timed(ctx, rep, "statistics", func() {
		rep.Statistics = analyzer.Describe(ds, numericCols)
		rep.Correlations = analyzer.Correlations(ds, numericCols)
		rep.Trends = analyzer.Trends(ds, numericCols)
		rep.Outliers = analyzer.Outliers(ds, numericCols)
	})

	e.timed(ctx, rep, "segmentation", func() {
		rep.Clusters = segment.New(e.cfg, e.logger).Run(ds, numericCols)
	})

	e.timed(ctx, rep, "anomaly", func() {
		rep.Anomalies = anomaly.New(e.cfg, e.logger).Run(ds, numericCols)
	})

	e.timed(ctx, rep, "temporal", func() {
		temporalResult := temporal.New(e.cfg, e.logger).Run(ds, prof.DatetimeColumn, prof.TargetMetric)
		rep.TimeAnalysis = temporalResult
		rep.Forecast = temporalResult.Forecast
	})

	synthesis := insight.New(e.cfg, e.logger).Build(insight.Inputs{
		Dataset:      ds,
		Profile:      prof,
		Trends:       rep.Trends,
		Correlations: rep.Correlations,
		Outliers:     rep.Outliers,
		Segments:     rep.Clusters,
		Anomalies:    rep.Anomalies,
		Temporal:     rep.TimeAnalysis,
	})
	rep.AIInsights = synthesis.AIInsights
	rep.Insights = synthesis.Insights
	rep.Recommendations = synthesis.Recommendations
	rep.ChartSpecs = synthesis.ChartSpecs
	rep.Summary = synthesis.Summary

	rep.MLMeta = report.MLMeta{
		Clustering: report.ClusteringMeta{
			Algorithm:  "kmeans++/silhouette",
			K:          rep.Clusters.K,
			Seed:       e.cfg.Seed,
			Silhouette: rep.Clusters.Silhouette,
			Features:   rep.Clusters.Features,
		},
		Anomalies: report.AnomalyMeta{
			Algorithm:             "robust-zscore/iqr-threshold",
			Threshold:             rep.Anomalies.Threshold,
			ContaminationFallback: e.cfg.ContaminationFallback,
		},
	}

	elapsed := time.Since(start)
	rep.RunNotes = append(rep.RunNotes, fmt.Sprintf("total run time %s", elapsed.Round(time.Millisecond)))
	if e.cfg.SoftBudget > 0 && elapsed > e.cfg.SoftBudget {
		rep.RunNotes = append(rep.RunNotes,
			fmt.Sprintf("soft budget of %s exceeded; caller-imposed timeouts apply", e.cfg.SoftBudget))
	}

	if err := ctx.Err(); err != nil {
		rep.RunNotes = append(rep.RunNotes, fmt.Sprintf("context ended during run: %v", err))
	}

	rep.Success = true
	log.Info("analysis complete",
		zap.Duration("elapsed", elapsed),
		zap.Int("rows", ds.RowCount()),
		zap.Int("columns", ds.ColumnCount()),
		zap.Bool("sampled", ds.Sampled))

	return rep
}

// timedProfile runs the profiler under a stage timer.
func (e *Engine) timedProfile(ctx context.Context, rep *report.Report, ds *dataset.Dataset) *profile.Profile {
	var prof *profile.Profile
	e.timed(ctx, rep, "profiling", func() {
		prof = profile.New(e.cfg, e.logger).Profile(ds)
	})
	return prof
}

// timed runs one stage, appends its wall-clock time to the run notes, and
// emits a stage-annotated debug line.
func (e *Engine) timed(ctx context.Context, rep *report.Report, name string, fn func()) {
	start := time.Now()
	fn()
	elapsed := time.Since(start).Round(time.Microsecond)
	logger.WithContext(context.WithValue(ctx, logger.StageKey, name)).
		Debug("stage finished", zap.Duration("took", elapsed))
	rep.RunNotes = append(rep.RunNotes, fmt.Sprintf("stage %s took %s", name, elapsed))
}
