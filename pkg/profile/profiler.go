package profile

import (
	"math"
	"sort"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
)

// Profiler derives column and dataset semantics. It never fails a whole run:
// a column whose profiling panics degrades to a default text profile.
type Profiler struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a Profiler.
func New(cfg *config.Config, logger *zap.Logger) *Profiler {
	return &Profiler{cfg: cfg, logger: logger}
}

// Profile analyzes every column and derives the dataset-level fields.
func (p *Profiler) Profile(ds *dataset.Dataset) *Profile {
	prof := &Profile{
		Columns: make([]ColumnProfile, 0, len(ds.Columns)),
	}

	for _, col := range ds.Columns {
		prof.Columns = append(prof.Columns, p.profileColumn(ds, col))
	}

	prof.Quality = p.qualityScore(ds, prof)
	prof.DatetimeColumn = firstDatetimeColumn(prof)
	prof.Domain, prof.DomainConfidence = p.classifyDomain(ds.Columns)
	prof.TargetMetric = p.pickTargetMetric(ds, prof)
	prof.Geo = p.detectGeo(ds, prof)

	return prof
}

// profileColumn infers one column's role. Recovers from any per-column panic
// so a single malformed column cannot abort the profile.
func (p *Profiler) profileColumn(ds *dataset.Dataset, col string) (cp ColumnProfile) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("column profiling failed, degrading to text",
				zap.String("column", col), zap.Any("panic", r))
			cp = ColumnProfile{Name: col, Kind: KindText}
		}
	}()

	values := ds.ColumnValues(col)
	total := len(values)

	nonNull := make([]interface{}, 0, total)
	for _, v := range values {
		if v != nil {
			nonNull = append(nonNull, v)
		}
	}

	cp = ColumnProfile{Name: col, Kind: KindText}
	if total > 0 {
		cp.MissingRatio = float64(total-len(nonNull)) / float64(total)
	}
	if len(nonNull) == 0 {
		return cp
	}

	distinct := distinctCount(nonNull)
	cp.UniqueRatio = float64(distinct) / float64(len(nonNull))

	cp.Kind = p.inferKind(nonNull, cp.UniqueRatio)

	if cp.UniqueRatio > p.cfg.IdentifierUniqueRatio && cp.MissingRatio < p.cfg.IdentifierMissingRatio {
		cp.IsIdentifier = true
		if cp.Kind == KindText || cp.Kind == KindCategorical {
			cp.Kind = KindIdentifier
		}
	}

	if cp.Kind == KindNumeric && matchesAny(col, p.cfg.Lexicons.Currency) {
		cp.IsCurrency = true
	}

	if cp.Kind == KindCategorical {
		cp.TopValues = topValues(nonNull, p.cfg.TopValueHistogramLimit)
	}

	return cp
}

// inferKind applies the dominant-type rule: native booleans and numbers are
// trusted, strings and epoch-plausible integers are probed for datetime
// semantics, and remaining strings split categorical vs text on unique ratio.
func (p *Profiler) inferKind(nonNull []interface{}, uniqueRatio float64) ColumnKind {
	sample := nonNull
	if limit := p.cfg.ProfileSampleValueLimit; limit > 0 && len(sample) > limit {
		sample = sample[:limit]
	}

	boolCount, numCount, strCount := 0, 0, 0
	for _, v := range sample {
		switch v.(type) {
		case bool:
			boolCount++
		case float64:
			numCount++
		case string:
			strCount++
		}
	}
	n := len(sample)

	const dominance = 0.95
	switch {
	case float64(boolCount)/float64(n) >= dominance:
		return KindBoolean
	case float64(numCount)/float64(n) >= dominance:
		if p.looksLikeDatetime(sample) {
			return KindDatetime
		}
		return KindNumeric
	}

	if strCount > 0 && p.looksLikeDatetime(sample) {
		return KindDatetime
	}

	if uniqueRatio <= p.cfg.CategoricalUniqueRatio {
		return KindCategorical
	}
	return KindText
}

// looksLikeDatetime reports whether enough values parse as dates and span
// enough distinct days to treat the column as a datetime axis.
func (p *Profiler) looksLikeDatetime(values []interface{}) bool {
	parsed := 0
	days := make(map[string]bool)

	for _, v := range values {
		t, ok := ParseTime(v)
		if !ok {
			continue
		}
		parsed++
		days[t.Format("2006-01-02")] = true
	}

	if parsed == 0 {
		return false
	}
	ratio := float64(parsed) / float64(len(values))
	return ratio >= p.cfg.DatetimeParseRatio && len(days) >= p.cfg.DatetimeMinDistinct
}

// timeLayouts are the accepted textual date formats, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseTime parses a cell as a point in time. Strings go through the layout
// list; numbers qualify only when they are integral and sit in the epoch
// second or millisecond magnitude range.
func ParseTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	case float64:
		if t != math.Trunc(t) {
			return time.Time{}, false
		}
		// Epoch seconds: 2001-09-09 through 2033-05-18.
		if t >= 1e9 && t < 2e9 {
			return time.Unix(int64(t), 0).UTC(), true
		}
		// Epoch milliseconds over the same span.
		if t >= 1e12 && t < 2e12 {
			return time.UnixMilli(int64(t)).UTC(), true
		}
	}
	return time.Time{}, false
}

// qualityScore computes completeness plus the numeric-column bonus, capped at 100.
func (p *Profiler) qualityScore(ds *dataset.Dataset, prof *Profile) QualityScore {
	totalCells := ds.RowCount() * ds.ColumnCount()
	missing := ds.MissingCells()

	completeness := 100.0
	if totalCells > 0 {
		completeness = (1 - float64(missing)/float64(totalCells)) * 100
	}

	numericCols := len(prof.NumericColumns())
	bonus := 0.0
	if ds.ColumnCount() > 0 {
		bonus = float64(numericCols) / float64(ds.ColumnCount()) * p.cfg.NumericBonusWeight
	}

	return QualityScore{
		OverallScore:   round1(math.Min(100, completeness+bonus)),
		Completeness:   round1(completeness),
		NumericColumns: numericCols,
		MissingValues:  missing,
	}
}

func firstDatetimeColumn(prof *Profile) string {
	for _, c := range prof.Columns {
		if c.Kind == KindDatetime {
			return c.Name
		}
	}
	return ""
}

func distinctCount(values []interface{}) int {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[cast.ToString(v)] = true
	}
	return len(seen)
}

func topValues(values []interface{}, limit int) map[string]int {
	counts := make(map[string]int)
	for _, v := range values {
		counts[cast.ToString(v)]++
	}
	if len(counts) <= limit {
		return counts
	}

	type kv struct {
		key   string
		count int
	}
	ranked := make([]kv, 0, len(counts))
	for k, c := range counts {
		ranked = append(ranked, kv{k, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	top := make(map[string]int, limit)
	for _, entry := range ranked[:limit] {
		top[entry.key] = entry.count
	}
	return top
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
