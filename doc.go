// Package datasleuth is an automated data analyst for tabular files. It
// ingests a single CSV or JSON file of unknown encoding and shape and emits
// one self-contained JSON report: column profiling, data quality scoring,
// descriptive statistics, correlations, trends, outliers, behavioral
// segmentation, anomaly detection, temporal analysis with a directional
// forecast, and prioritized natural-language recommendations.
//
// # Design
//
// The engine is built around three rules:
//
// 1. Graceful degradation: a stage that cannot run (too few rows, no numeric
// columns, no time axis) disables itself with a machine-readable reason
// instead of failing the run. Only an unreadable or undecodable input fails
// a run, and even then the caller receives a well-formed failure report.
//
// 2. Determinism: every randomized step (row sampling, k-means++ seeding,
// silhouette subsampling) draws from one configured seed, so repeated runs
// over the same input produce identical reports.
//
// 3. One document out: stdout carries exactly one JSON object; all logging
// goes to stderr.
//
// # Quick Start
//
// Analyze a file from Go:
//
//	import (
//	    "context"
//	    "github.com/datasleuth/datasleuth/internal/pipeline"
//	    "github.com/datasleuth/datasleuth/pkg/config"
//	    "github.com/datasleuth/datasleuth/pkg/logger"
//	)
//
//	cfg := config.Default()
//	engine := pipeline.New(cfg, logger.Get())
//	report := engine.Run(context.Background(), "sales.csv", "run-1")
//	out, _ := report.Render()
//
// Or from the command line:
//
//	datasleuth analyze sales.csv
//
// # Key Packages
//
//	pkg/dataset   - Ingestion: encoding detection, decode ladder, CSV/JSON parsing
//	pkg/profile   - Column typing, quality scoring, domain classification
//	pkg/stats     - Descriptive statistics, correlations, trends, outliers
//	pkg/segment   - K-means segmentation with silhouette-selected cluster count
//	pkg/anomaly   - Robust z-score anomaly detection with adaptive threshold
//	pkg/temporal  - Time-grain inference, period aggregation, linear forecast
//	pkg/insight   - Insight synthesis, recommendations, chart specs
//	pkg/report    - The response document
//	internal/pipeline - Stage orchestration
package datasleuth
