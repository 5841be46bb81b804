package profile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
)

func newProfiler() *Profiler {
	return New(config.Default(), zap.NewNop())
}

// buildDataset assembles an in-memory dataset from parallel column slices.
func buildDataset(columns []string, cells map[string][]interface{}) *dataset.Dataset {
	rows := 0
	for _, values := range cells {
		if len(values) > rows {
			rows = len(values)
		}
	}

	ds := &dataset.Dataset{Columns: columns}
	for i := 0; i < rows; i++ {
		row := make(dataset.Row, len(columns))
		for _, col := range columns {
			if i < len(cells[col]) {
				row[col] = cells[col][i]
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	ds.SourceRows = rows
	return ds
}

func TestInferKind(t *testing.T) {
	p := newProfiler()
	n := 30

	numeric := make([]interface{}, n)
	category := make([]interface{}, n)
	flag := make([]interface{}, n)
	id := make([]interface{}, n)
	freeText := make([]interface{}, n)
	dates := make([]interface{}, n)
	for i := 0; i < n; i++ {
		numeric[i] = float64(i) * 1.5
		category[i] = []string{"red", "green", "blue"}[i%3]
		flag[i] = i%2 == 0
		id[i] = fmt.Sprintf("user-%04d", i)
		freeText[i] = fmt.Sprintf("note about event %d with detail", i%24)
		dates[i] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02")
	}

	columns := []string{"amount", "color", "active", "user_id", "notes", "created"}
	ds := buildDataset(columns, map[string][]interface{}{
		"amount": numeric, "color": category, "active": flag,
		"user_id": id, "notes": freeText, "created": dates,
	})

	prof := p.Profile(ds)

	expected := map[string]ColumnKind{
		"amount":  KindNumeric,
		"color":   KindCategorical,
		"active":  KindBoolean,
		"user_id": KindIdentifier,
		"notes":   KindText,
		"created": KindDatetime,
	}
	for col, kind := range expected {
		cp := prof.Column(col)
		require.NotNil(t, cp, col)
		assert.Equal(t, kind, cp.Kind, col)
	}

	assert.Equal(t, []string{"amount"}, prof.NumericColumns())
	assert.Equal(t, "created", prof.DatetimeColumn)

	color := prof.Column("color")
	assert.Len(t, color.TopValues, 3)
	assert.Equal(t, 10, color.TopValues["red"])

	userID := prof.Column("user_id")
	assert.True(t, userID.IsIdentifier)
}

func TestDatetimeNeedsDistinctDays(t *testing.T) {
	p := newProfiler()
	n := 30

	// Dates parse fine but span only three distinct days, so the column
	// stays categorical rather than becoming a time axis.
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		values[i] = []string{"2024-01-01", "2024-01-02", "2024-01-03"}[i%3]
	}
	ds := buildDataset([]string{"day"}, map[string][]interface{}{"day": values})

	prof := p.Profile(ds)
	assert.Equal(t, KindCategorical, prof.Column("day").Kind)
	assert.Empty(t, prof.DatetimeColumn)
}

func TestQualityScore(t *testing.T) {
	p := newProfiler()

	// 10 rows x 2 columns, 2 missing cells, 1 numeric column of 2:
	// completeness 90, bonus 5, overall 95.
	a := make([]interface{}, 10)
	b := make([]interface{}, 10)
	for i := 0; i < 10; i++ {
		a[i] = float64(i)
		b[i] = fmt.Sprintf("txt-%d-filler", i)
	}
	a[3], b[7] = nil, nil

	ds := buildDataset([]string{"a", "b"}, map[string][]interface{}{"a": a, "b": b})
	prof := p.Profile(ds)

	assert.Equal(t, 90.0, prof.Quality.Completeness)
	assert.Equal(t, 95.0, prof.Quality.OverallScore)
	assert.Equal(t, 1, prof.Quality.NumericColumns)
	assert.Equal(t, 2, prof.Quality.MissingValues)
}

func TestQualityScoreCapped(t *testing.T) {
	p := newProfiler()

	a := make([]interface{}, 10)
	for i := range a {
		a[i] = float64(i)
	}
	ds := buildDataset([]string{"a"}, map[string][]interface{}{"a": a})

	prof := p.Profile(ds)
	assert.Equal(t, 100.0, prof.Quality.OverallScore)
	assert.Equal(t, 100.0, prof.Quality.Completeness)
}

func TestClassifyDomain(t *testing.T) {
	p := newProfiler()

	tests := []struct {
		name       string
		columns    []string
		wantDomain string
	}{
		{"business columns", []string{"revenue", "cost", "customer_id", "region"}, DomainBusiness},
		{"ops columns", []string{"latency_ms", "cpu_pct", "error_rate", "host"}, DomainOperations},
		{"no lexicon hits default to business", []string{"x", "y", "z"}, DomainBusiness},
		{"tie resolves to business", []string{"revenue", "latency"}, DomainBusiness},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain, confidence := p.classifyDomain(tt.columns)
			assert.Equal(t, tt.wantDomain, domain)
			assert.GreaterOrEqual(t, confidence, 0.0)
			assert.LessOrEqual(t, confidence, 1.0)
		})
	}

	t.Run("confidence is the hit gap", func(t *testing.T) {
		_, confidence := p.classifyDomain([]string{"revenue", "sales", "latency"})
		assert.InDelta(t, 1.0/3.0, confidence, 1e-9)
	})
}

func TestPickTargetMetric(t *testing.T) {
	p := newProfiler()
	n := 12

	revenue := make([]interface{}, n)
	clicks := make([]interface{}, n)
	for i := 0; i < n; i++ {
		revenue[i] = float64(i)
		clicks[i] = float64(i * 1000)
	}

	t.Run("keyword match beats magnitude", func(t *testing.T) {
		ds := buildDataset([]string{"revenue", "clicks"},
			map[string][]interface{}{"revenue": revenue, "clicks": clicks})
		prof := p.Profile(ds)
		assert.Equal(t, "revenue", prof.TargetMetric)
	})

	t.Run("fallback to largest absolute sum", func(t *testing.T) {
		ds := buildDataset([]string{"alpha", "beta"},
			map[string][]interface{}{"alpha": revenue, "beta": clicks})
		prof := p.Profile(ds)
		assert.Equal(t, "beta", prof.TargetMetric)
	})
}

func TestDetectGeo(t *testing.T) {
	p := newProfiler()
	n := 10

	lat := make([]interface{}, n)
	lon := make([]interface{}, n)
	latency := make([]interface{}, n)
	for i := 0; i < n; i++ {
		lat[i] = 40.0 + float64(i)*0.1
		lon[i] = -74.0 + float64(i)*0.1
		latency[i] = float64(i * 50)
	}

	t.Run("valid coordinate pair", func(t *testing.T) {
		ds := buildDataset([]string{"latitude", "longitude"},
			map[string][]interface{}{"latitude": lat, "longitude": lon})
		prof := p.Profile(ds)

		assert.True(t, prof.Geo.Detected)
		assert.Equal(t, "latitude", prof.Geo.LatColumn)
		assert.Equal(t, "longitude", prof.Geo.LonColumn)
	})

	t.Run("latency is not latitude", func(t *testing.T) {
		ds := buildDataset([]string{"latency_ms", "longitude"},
			map[string][]interface{}{"latency_ms": latency, "longitude": lon})
		prof := p.Profile(ds)
		assert.False(t, prof.Geo.Detected)
	})

	t.Run("out of range values disqualify", func(t *testing.T) {
		big := make([]interface{}, n)
		for i := range big {
			big[i] = float64(1000 + i)
		}
		ds := buildDataset([]string{"latitude", "longitude"},
			map[string][]interface{}{"latitude": big, "longitude": lon})
		prof := p.Profile(ds)
		assert.False(t, prof.Geo.Detected)
	})
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		ok    bool
	}{
		{"iso date", "2024-03-15", true},
		{"rfc3339", "2024-03-15T10:30:00Z", true},
		{"slash date", "2024/03/15", true},
		{"us date", "03/15/2024", true},
		{"epoch seconds", float64(1710500000), true},
		{"epoch millis", float64(1710500000000), true},
		{"small integer", float64(42), false},
		{"fractional number", float64(1710500000.5), false},
		{"plain word", "hello", false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := ParseTime(tt.value)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.False(t, parsed.IsZero())
			}
		})
	}
}

func TestCurrencyFlag(t *testing.T) {
	p := newProfiler()
	n := 10

	price := make([]interface{}, n)
	qty := make([]interface{}, n)
	for i := 0; i < n; i++ {
		price[i] = float64(i) * 9.99
		qty[i] = float64(i)
	}

	ds := buildDataset([]string{"unit_price", "qty"},
		map[string][]interface{}{"unit_price": price, "qty": qty})
	prof := p.Profile(ds)

	assert.True(t, prof.Column("unit_price").IsCurrency)
	assert.False(t, prof.Column("qty").IsCurrency)
}

func TestMissingRatio(t *testing.T) {
	p := newProfiler()

	values := []interface{}{1.0, nil, 3.0, nil, 5.0, 6.0, 7.0, 8.0, 9.0, 10.0}
	ds := buildDataset([]string{"v"}, map[string][]interface{}{"v": values})

	prof := p.Profile(ds)
	assert.InDelta(t, 0.2, prof.Column("v").MissingRatio, 1e-9)
}
