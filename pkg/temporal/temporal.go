// Package temporal resamples the target metric along the detected datetime
// column at an inferred grain, computes period deltas, and projects a linear
// directional forecast.
package temporal

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
	"github.com/datasleuth/datasleuth/pkg/profile"
)

// Grain is the time bucket used for aggregation.
type Grain string

const (
	GrainDaily     Grain = "daily"
	GrainWeekly    Grain = "weekly"
	GrainMonthly   Grain = "monthly"
	GrainQuarterly Grain = "quarterly"
)

// Period is one aggregated bucket of the target metric.
type Period struct {
	Key   string  `json:"period"`
	Value float64 `json:"value"`
}

// Delta compares the last period against the previous one. Pct is nil when
// the previous period value is zero.
type Delta struct {
	Absolute float64  `json:"absolute"`
	Pct      *float64 `json:"pct,omitempty"`
}

// Forecast is a linear trend projection. It is directional only, not a
// validated time-series model, and is populated solely when enough periods
// exist.
type Forecast struct {
	Available   bool      `json:"available"`
	NextPeriods []float64 `json:"next_periods,omitempty"`
	Slope       float64   `json:"slope,omitempty"`
	SlopeRate   float64   `json:"slope_rate,omitempty"`
	Note        string    `json:"note,omitempty"`
}

// Result is the temporal stage output.
type Result struct {
	Enabled        bool     `json:"enabled"`
	Reason         string   `json:"reason,omitempty"`
	DatetimeColumn string   `json:"datetime_column,omitempty"`
	TargetMetric   string   `json:"target_metric,omitempty"`
	Grain          Grain    `json:"grain,omitempty"`
	Periods        []Period `json:"periods,omitempty"`
	Delta          *Delta   `json:"delta,omitempty"`

	// Forecast is reported in its own top-level section.
	Forecast Forecast `json:"-"`
}

// Engine runs the temporal stage.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates an Engine.
func New(cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger}
}

// Run aggregates the target metric along the datetime column. When the
// inferred grain collapses below the period minimum it retries once at daily
// before disabling the stage.
func (e *Engine) Run(ds *dataset.Dataset, datetimeCol, targetMetric string) *Result {
	if datetimeCol == "" {
		return &Result{Reason: "no datetime column detected"}
	}
	if targetMetric == "" {
		return &Result{Reason: "no target metric available"}
	}

	points := collectPoints(ds, datetimeCol, targetMetric)
	if len(points) < 2 {
		return &Result{Reason: "too few timestamped rows for temporal analysis"}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })

	grain := e.inferGrain(points)
	periods := aggregate(points, grain)

	if len(periods) < e.cfg.MinPeriods && grain != GrainDaily {
		e.logger.Debug("period count below minimum, retrying at daily grain",
			zap.String("grain", string(grain)), zap.Int("periods", len(periods)))
		grain = GrainDaily
		periods = aggregate(points, grain)
	}
	if len(periods) < e.cfg.MinPeriods {
		return &Result{
			Reason: fmt.Sprintf("only %d aggregated periods (minimum %d)", len(periods), e.cfg.MinPeriods),
		}
	}

	result := &Result{
		Enabled:        true,
		DatetimeColumn: datetimeCol,
		TargetMetric:   targetMetric,
		Grain:          grain,
		Periods:        periods,
		Delta:          computeDelta(periods),
		Forecast:       e.forecast(periods),
	}
	return result
}

type point struct {
	t time.Time
	v float64
}

func collectPoints(ds *dataset.Dataset, datetimeCol, targetMetric string) []point {
	points := make([]point, 0, ds.RowCount())
	for _, row := range ds.Rows {
		t, ok := profile.ParseTime(row[datetimeCol])
		if !ok {
			continue
		}
		v, ok := row.Float64(targetMetric)
		if !ok {
			continue
		}
		points = append(points, point{t, v})
	}
	return points
}

// inferGrain classifies the median inter-row delta of the time-sorted points.
func (e *Engine) inferGrain(points []point) Grain {
	deltas := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		deltas = append(deltas, points[i].t.Sub(points[i-1].t).Seconds())
	}
	sort.Float64s(deltas)
	median := time.Duration(stat.Quantile(0.5, stat.Empirical, deltas, nil)) * time.Second

	switch {
	case median <= e.cfg.DailyGrainMax:
		return GrainDaily
	case median <= e.cfg.WeeklyGrainMax:
		return GrainWeekly
	case median <= e.cfg.MonthlyGrainMax:
		return GrainMonthly
	default:
		return GrainQuarterly
	}
}

// aggregate sums the metric per period key. Empty periods never appear, so
// the result is contiguous over the observed keys in sorted order.
func aggregate(points []point, grain Grain) []Period {
	sums := make(map[string]float64)
	for _, p := range points {
		sums[periodKey(p.t, grain)] += p.v
	}

	keys := make([]string, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	periods := make([]Period, len(keys))
	for i, key := range keys {
		periods[i] = Period{Key: key, Value: sums[key]}
	}
	return periods
}

func periodKey(t time.Time, grain Grain) string {
	switch grain {
	case GrainDaily:
		return t.Format("2006-01-02")
	case GrainWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GrainMonthly:
		return t.Format("2006-01")
	default:
		quarter := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%04d-Q%d", t.Year(), quarter)
	}
}

func computeDelta(periods []Period) *Delta {
	n := len(periods)
	if n < 2 {
		return nil
	}

	previous := periods[n-2].Value
	last := periods[n-1].Value
	delta := &Delta{Absolute: last - previous}

	if previous != 0 {
		pct := (last - previous) / math.Abs(previous) * 100
		pct = math.Round(pct*100) / 100
		delta.Pct = &pct
	}
	return delta
}

// forecast fits a first-degree polynomial over period index vs value and
// projects the configured horizon. The slope is also expressed as a rate
// relative to the mean of the last three periods so it stays comparable
// across scales.
func (e *Engine) forecast(periods []Period) Forecast {
	n := len(periods)
	if n < e.cfg.ForecastMinPeriods {
		return Forecast{}
	}

	x := make([]float64, n)
	y := make([]float64, n)
	for i, p := range periods {
		x[i] = float64(i)
		y[i] = p.Value
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return Forecast{}
	}

	next := make([]float64, e.cfg.ForecastHorizon)
	for i := range next {
		projected := alpha + beta*float64(n+i)
		next[i] = math.Round(projected*100) / 100
	}

	basisWindow := y
	if n > 3 {
		basisWindow = y[n-3:]
	}
	basis := stat.Mean(basisWindow, nil)

	rate := 0.0
	if basis != 0 {
		rate = math.Round(beta/math.Abs(basis)*10000) / 10000
	}

	return Forecast{
		Available:   true,
		NextPeriods: next,
		Slope:       math.Round(beta*10000) / 10000,
		SlopeRate:   rate,
		Note:        "directional trend projection, not a validated forecast",
	}
}
