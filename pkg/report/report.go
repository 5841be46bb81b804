// Package report defines the single JSON document the engine returns. Every
// top-level key is always present; skipped stages carry explicit defaults and
// reasons rather than missing fields.
package report

import (
	gojson "github.com/goccy/go-json"

	"github.com/datasleuth/datasleuth/pkg/anomaly"
	"github.com/datasleuth/datasleuth/pkg/insight"
	"github.com/datasleuth/datasleuth/pkg/profile"
	"github.com/datasleuth/datasleuth/pkg/segment"
	"github.com/datasleuth/datasleuth/pkg/stats"
	"github.com/datasleuth/datasleuth/pkg/temporal"
)

// FileInfo describes the ingested file's shape.
type FileInfo struct {
	Rows           int      `json:"rows"`
	Columns        int      `json:"columns"`
	NumericColumns []string `json:"numeric_columns"`
}

// Sampling records whether the row ceiling triggered subsampling.
type Sampling struct {
	Applied      bool  `json:"applied"`
	OriginalRows int   `json:"original_rows"`
	UsedRows     int   `json:"used_rows"`
	Seed         int64 `json:"seed,omitempty"`
}

// Domain is the dataset-level classification.
type Domain struct {
	Name         string  `json:"name"`
	Confidence   float64 `json:"confidence"`
	TargetMetric string  `json:"target_metric,omitempty"`
}

// DataDictionary lists the per-column profiles.
type DataDictionary struct {
	Columns []profile.ColumnProfile `json:"columns"`
}

// ClusteringMeta records how the segmentation stage was parameterized.
type ClusteringMeta struct {
	Algorithm  string   `json:"algorithm"`
	K          int      `json:"k,omitempty"`
	Seed       int64    `json:"seed"`
	Silhouette float64  `json:"silhouette,omitempty"`
	Features   []string `json:"features,omitempty"`
}

// AnomalyMeta records how the anomaly stage was parameterized.
type AnomalyMeta struct {
	Algorithm             string  `json:"algorithm"`
	Threshold             float64 `json:"threshold,omitempty"`
	ContaminationFallback float64 `json:"contamination_fallback"`
}

// MLMeta groups the model metadata sections.
type MLMeta struct {
	Clustering ClusteringMeta `json:"clustering"`
	Anomalies  AnomalyMeta    `json:"anomalies"`
}

// Report is the full response document.
type Report struct {
	Success         bool                         `json:"success"`
	ExecutionID     string                       `json:"execution_id"`
	FileEncoding    string                       `json:"file_encoding"`
	FileInfo        FileInfo                     `json:"file_info"`
	DataQuality     profile.QualityScore         `json:"data_quality"`
	Statistics      map[string]stats.ColumnStats `json:"statistics"`
	Correlations    map[string]float64           `json:"correlations"`
	Trends          map[string]string            `json:"trends"`
	Outliers        map[string]int               `json:"outliers"`
	Clusters        *segment.Result              `json:"clusters"`
	Anomalies       *anomaly.Result              `json:"anomalies"`
	Forecast        temporal.Forecast            `json:"forecast"`
	AIInsights      []string                     `json:"ai_insights"`
	Recommendations []insight.Recommendation     `json:"recommendations"`
	Insights        []string                     `json:"insights"`
	Summary         string                       `json:"summary"`
	DataDictionary  DataDictionary               `json:"data_dictionary"`
	TimeAnalysis    *temporal.Result             `json:"time_analysis"`
	Domain          Domain                       `json:"domain"`
	RunNotes        []string                     `json:"run_notes"`
	Sampling        Sampling                     `json:"sampling"`
	ChartSpecs      []insight.ChartSpec          `json:"chart_specs"`
	Geo             profile.GeoInfo              `json:"geo"`
	MLMeta          MLMeta                       `json:"ml_meta"`
	Error           string                       `json:"error,omitempty"`
}

// New returns a well-formed report with every section defaulted. Stage
// writers fill disjoint sections; a failure leaves the defaults in place.
func New(executionID string) *Report {
	return &Report{
		ExecutionID:     executionID,
		FileEncoding:    "unknown",
		FileInfo:        FileInfo{NumericColumns: []string{}},
		Statistics:      map[string]stats.ColumnStats{},
		Correlations:    map[string]float64{},
		Trends:          map[string]string{},
		Outliers:        map[string]int{},
		Clusters:        &segment.Result{Reason: "analysis not run"},
		Anomalies:       &anomaly.Result{Reason: "analysis not run", Pct: "0.00%", Top5: []anomaly.RowSample{}, Top3: []anomaly.RowSample{}},
		TimeAnalysis:    &temporal.Result{Reason: "analysis not run"},
		AIInsights:      []string{},
		Recommendations: []insight.Recommendation{},
		Insights:        []string{},
		DataDictionary:  DataDictionary{Columns: []profile.ColumnProfile{}},
		RunNotes:        []string{},
		ChartSpecs:      []insight.ChartSpec{},
	}
}

// Render marshals the report to its JSON wire form.
func (r *Report) Render() ([]byte, error) {
	return gojson.Marshal(r)
}
