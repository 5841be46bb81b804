// Package config defines the analysis configuration for datasleuth.
//
// Every threshold the engine consults is a named, overridable field here
// rather than a constant buried in a stage. The values in Default are the
// empirically chosen operating points of the engine; override them per tenant
// via a YAML file rather than editing code. Keyword lexicons are injected
// configuration for the same reason: multiple tenant configurations can run
// concurrently without sharing module-level globals.
package config

import "time"

// Lexicons holds the keyword lists used for domain classification and
// column-role flagging. All matching is case-insensitive substring matching
// against normalized column names.
type Lexicons struct {
	// Business terms vote for the "business" domain.
	Business []string `yaml:"business"`
	// Ops terms vote for the "operations" domain.
	Ops []string `yaml:"ops"`
	// Currency terms flag a numeric column as money-like.
	Currency []string `yaml:"currency"`
	// BusinessTargets is the ordered preference list for picking a target
	// metric in a business-classified dataset. First match wins.
	BusinessTargets []string `yaml:"business_targets"`
	// OpsTargets is the ordered preference list for operations datasets.
	OpsTargets []string `yaml:"ops_targets"`
}

// Config carries every tunable the engine reads. Zero values are not usable;
// start from Default and override.
type Config struct {
	// Ingestion
	SampleRowCeiling   int   `yaml:"sample_row_ceiling"`   // rows above this trigger uniform sampling
	Seed               int64 `yaml:"seed"`                 // one seed for every randomized step
	EncodingSniffBytes int   `yaml:"encoding_sniff_bytes"` // prefix handed to the charset detector

	// Profiling
	DatetimeParseRatio      float64 `yaml:"datetime_parse_ratio"`      // min fraction of values that must parse as dates
	DatetimeMinDistinct     int     `yaml:"datetime_min_distinct"`     // min distinct dates for a datetime column
	CategoricalUniqueRatio  float64 `yaml:"categorical_unique_ratio"`  // unique ratio at or below this is categorical
	IdentifierUniqueRatio   float64 `yaml:"identifier_unique_ratio"`   // unique ratio above this flags identifier-like
	IdentifierMissingRatio  float64 `yaml:"identifier_missing_ratio"`  // identifier columns must miss less than this
	NumericBonusWeight      float64 `yaml:"numeric_bonus_weight"`      // quality bonus scale for numeric columns
	TopValueHistogramLimit  int     `yaml:"top_value_histogram_limit"` // top values kept per categorical column
	ProfileSampleValueLimit int     `yaml:"profile_sample_value_limit"`

	// Statistics
	MaxCorrelationColumns int     `yaml:"max_correlation_columns"` // variance-ranked cap before pairwise Pearson
	CorrelationFloor      float64 `yaml:"correlation_floor"`       // report pairs with |r| at or above this
	TrendFloor            float64 `yaml:"trend_floor"`             // min |pct change| for a half-split trend
	OutlierMinValues      int     `yaml:"outlier_min_values"`      // non-null values required for the IQR rule

	// Segmentation
	ClusterMinRows      int `yaml:"cluster_min_rows"`      // rows required to attempt clustering
	MaxClusters         int `yaml:"max_clusters"`          // upper bound on k
	MaxClusterFeatures  int `yaml:"max_cluster_features"`  // variance-ranked feature cap
	SilhouetteSampleCap int `yaml:"silhouette_sample_cap"` // rows scored when picking k
	KMeansMaxIterations int `yaml:"kmeans_max_iterations"`

	// Anomaly detection
	AnomalyMinRows        int     `yaml:"anomaly_min_rows"`       // rows required to attempt scoring
	ContaminationFallback float64 `yaml:"contamination_fallback"` // top fraction flagged when the adaptive rule degenerates
	TopAnomalies          int     `yaml:"top_anomalies"`          // most anomalous rows retained in the report

	// Temporal analysis
	MinPeriods         int           `yaml:"min_periods"`          // aggregated periods required to enable the stage
	ForecastMinPeriods int           `yaml:"forecast_min_periods"` // aggregated periods required to forecast
	ForecastHorizon    int           `yaml:"forecast_horizon"`     // future periods projected
	DailyGrainMax      time.Duration `yaml:"daily_grain_max"`      // median delta at or below this is daily
	WeeklyGrainMax     time.Duration `yaml:"weekly_grain_max"`
	MonthlyGrainMax    time.Duration `yaml:"monthly_grain_max"` // beyond this is quarterly

	// Insights
	MaxInsights        int `yaml:"max_insights"`
	MaxRecommendations int `yaml:"max_recommendations"`

	// Run diagnostics
	SoftBudget time.Duration `yaml:"soft_budget"` // tracked in run notes, never enforced

	Lexicons Lexicons `yaml:"lexicons"`
}

// Default returns the canonical configuration. These are the operating points
// the engine ships with; every one of them may be overridden via Load.
func Default() *Config {
	return &Config{
		SampleRowCeiling:   50000,
		Seed:               42,
		EncodingSniffBytes: 10000,

		DatetimeParseRatio:      0.80,
		DatetimeMinDistinct:     10,
		CategoricalUniqueRatio:  0.20,
		IdentifierUniqueRatio:   0.98,
		IdentifierMissingRatio:  0.05,
		NumericBonusWeight:      10.0,
		TopValueHistogramLimit:  5,
		ProfileSampleValueLimit: 1000,

		MaxCorrelationColumns: 12,
		CorrelationFloor:      0.6,
		TrendFloor:            5.0,
		OutlierMinValues:      20,

		ClusterMinRows:      10,
		MaxClusters:         8,
		MaxClusterFeatures:  10,
		SilhouetteSampleCap: 1000,
		KMeansMaxIterations: 100,

		AnomalyMinRows:        25,
		ContaminationFallback: 0.05,
		TopAnomalies:          5,

		MinPeriods:         6,
		ForecastMinPeriods: 8,
		ForecastHorizon:    3,
		DailyGrainMax:      36 * time.Hour,
		WeeklyGrainMax:     10 * 24 * time.Hour,
		MonthlyGrainMax:    45 * 24 * time.Hour,

		MaxInsights:        5,
		MaxRecommendations: 4,

		SoftBudget: 60 * time.Second,

		Lexicons: Lexicons{
			Business: []string{
				"revenue", "sales", "price", "cost", "profit", "margin",
				"customer", "churn", "subscription", "order", "invoice",
				"conversion", "campaign", "arpu", "mrr", "ltv",
			},
			Ops: []string{
				"sla", "latency", "uptime", "downtime", "incident", "error",
				"cpu", "memory", "disk", "throughput", "queue", "response_time",
				"p95", "p99", "alert",
			},
			Currency: []string{
				"revenue", "price", "cost", "amount", "total", "fee",
				"spend", "payment", "salary", "budget",
			},
			BusinessTargets: []string{
				"revenue", "sales", "profit", "amount", "total", "price", "mrr",
			},
			OpsTargets: []string{
				"latency", "response_time", "throughput", "error", "incident", "cpu",
			},
		},
	}
}
