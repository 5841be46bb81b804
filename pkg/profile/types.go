// Package profile infers per-column roles and dataset-level semantics from an
// ingested dataset: column typing, data-quality scoring, datetime-column
// detection, domain classification, target-metric selection, and geo
// coordinate detection.
package profile

// ColumnKind is the inferred role of a column.
type ColumnKind string

const (
	// KindNumeric marks a column of numbers.
	KindNumeric ColumnKind = "numeric"
	// KindCategorical marks a low-cardinality string column.
	KindCategorical ColumnKind = "categorical"
	// KindDatetime marks a column carrying date semantics.
	KindDatetime ColumnKind = "datetime"
	// KindBoolean marks a column of booleans.
	KindBoolean ColumnKind = "boolean"
	// KindText marks a high-cardinality string column.
	KindText ColumnKind = "text"
	// KindIdentifier marks a near-unique key-like column.
	KindIdentifier ColumnKind = "identifier"
)

// ColumnProfile is the per-column inference result. Created once per run,
// immutable afterwards.
type ColumnProfile struct {
	Name         string         `json:"name"`
	Kind         ColumnKind     `json:"kind"`
	MissingRatio float64        `json:"missing_ratio"`
	UniqueRatio  float64        `json:"unique_ratio"`
	TopValues    map[string]int `json:"top_values,omitempty"`
	IsCurrency   bool           `json:"is_currency"`
	IsIdentifier bool           `json:"is_identifier"`
}

// QualityScore reports dataset completeness with the numeric-column bonus
// broken out for transparency.
type QualityScore struct {
	OverallScore   float64 `json:"overall_score"`
	Completeness   float64 `json:"completeness"`
	NumericColumns int     `json:"numeric_columns"`
	MissingValues  int     `json:"missing_values"`
}

// GeoInfo reports a detected latitude/longitude column pair.
type GeoInfo struct {
	Detected  bool   `json:"detected"`
	LatColumn string `json:"lat_column,omitempty"`
	LonColumn string `json:"lon_column,omitempty"`
}

// Profile aggregates everything the profiler derives from one dataset.
type Profile struct {
	Quality          QualityScore
	Columns          []ColumnProfile
	DatetimeColumn   string
	Domain           string
	DomainConfidence float64
	TargetMetric     string
	Geo              GeoInfo
}

// NumericColumns returns the names of numeric columns in dataset order.
func (p *Profile) NumericColumns() []string {
	cols := make([]string, 0, len(p.Columns))
	for _, c := range p.Columns {
		if c.Kind == KindNumeric {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// Column returns the profile of a named column, or nil when unknown.
func (p *Profile) Column(name string) *ColumnProfile {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i]
		}
	}
	return nil
}
