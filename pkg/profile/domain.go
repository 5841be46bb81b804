package profile

import (
	"math"
	"strings"

	"github.com/datasleuth/datasleuth/pkg/dataset"
)

// DomainBusiness and DomainOperations are the two recognized dataset domains.
const (
	DomainBusiness   = "business"
	DomainOperations = "operations"
)

// classifyDomain votes column names against the business and ops lexicons.
// The higher hit count wins, ties resolve to business, and confidence is the
// normalized hit-count gap.
func (p *Profiler) classifyDomain(columns []string) (string, float64) {
	business, ops := 0, 0
	for _, col := range columns {
		if matchesAny(col, p.cfg.Lexicons.Business) {
			business++
		}
		if matchesAny(col, p.cfg.Lexicons.Ops) {
			ops++
		}
	}

	total := business + ops
	if total == 0 {
		return DomainBusiness, 0
	}

	confidence := math.Abs(float64(business-ops)) / float64(total)
	if ops > business {
		return DomainOperations, confidence
	}
	return DomainBusiness, confidence
}

// pickTargetMetric prefers the first numeric column whose name matches the
// domain's ordered keyword list; otherwise the numeric column with the
// largest sum of absolute values.
func (p *Profiler) pickTargetMetric(ds *dataset.Dataset, prof *Profile) string {
	numeric := prof.NumericColumns()
	if len(numeric) == 0 {
		return ""
	}

	keywords := p.cfg.Lexicons.BusinessTargets
	if prof.Domain == DomainOperations {
		keywords = p.cfg.Lexicons.OpsTargets
	}

	for _, keyword := range keywords {
		for _, col := range numeric {
			if strings.Contains(strings.ToLower(col), keyword) {
				return col
			}
		}
	}

	best := ""
	bestSum := -1.0
	for _, col := range numeric {
		values, _ := ds.NumericValues(col)
		sum := 0.0
		for _, v := range values {
			sum += math.Abs(v)
		}
		if sum > bestSum {
			bestSum = sum
			best = col
		}
	}
	return best
}

// detectGeo looks for a latitude/longitude column-name pair whose values fit
// the coordinate ranges.
func (p *Profiler) detectGeo(ds *dataset.Dataset, prof *Profile) GeoInfo {
	latCol, lonCol := "", ""

	for _, c := range prof.Columns {
		if c.Kind != KindNumeric {
			continue
		}
		name := strings.ToLower(c.Name)
		switch {
		case latCol == "" && strings.Contains(name, "lat") && !strings.Contains(name, "latency"):
			if valuesInRange(ds, c.Name, -90, 90) {
				latCol = c.Name
			}
		case lonCol == "" && (strings.Contains(name, "lon") || strings.Contains(name, "lng")):
			if valuesInRange(ds, c.Name, -180, 180) {
				lonCol = c.Name
			}
		}
	}

	if latCol == "" || lonCol == "" {
		return GeoInfo{}
	}
	return GeoInfo{Detected: true, LatColumn: latCol, LonColumn: lonCol}
}

func valuesInRange(ds *dataset.Dataset, col string, lo, hi float64) bool {
	values, _ := ds.NumericValues(col)
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if v < lo || v > hi {
			return false
		}
	}
	return true
}

// matchesAny reports a case-insensitive substring match of any keyword in the
// column name.
func matchesAny(column string, keywords []string) bool {
	name := strings.ToLower(column)
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}
