// Package insight converts the analytical stage outputs into ranked
// natural-language insights, prioritized recommendations, and chart-spec
// hints for a UI layer. Synthesis is deterministic and rule-ordered, with
// fixed tie-breaks; nothing here is generative.
package insight

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/datasleuth/datasleuth/pkg/anomaly"
	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
	"github.com/datasleuth/datasleuth/pkg/profile"
	"github.com/datasleuth/datasleuth/pkg/segment"
	"github.com/datasleuth/datasleuth/pkg/temporal"
)

// Recommendation is one prioritized action for direct display.
type Recommendation struct {
	Priority string `json:"priority"` // HIGH or MEDIUM
	Action   string `json:"action"`
	Reason   string `json:"reason"`
	Impact   string `json:"impact"`
}

// ChartSpec hints a UI layer at a chart worth rendering.
type ChartSpec struct {
	Type  string      `json:"type"`
	Title string      `json:"title"`
	X     string      `json:"x,omitempty"`
	Y     string      `json:"y,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Inputs gathers every stage output the synthesizer reads.
type Inputs struct {
	Dataset      *dataset.Dataset
	Profile      *profile.Profile
	Trends       map[string]string
	Correlations map[string]float64
	Outliers     map[string]int
	Segments     *segment.Result
	Anomalies    *anomaly.Result
	Temporal     *temporal.Result
}

// Output is the synthesized narrative layer of the report.
type Output struct {
	AIInsights      []string
	Insights        []string
	Recommendations []Recommendation
	ChartSpecs      []ChartSpec
	Summary         string
}

// Synthesizer builds the narrative layer.
type Synthesizer struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a Synthesizer.
func New(cfg *config.Config, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{cfg: cfg, logger: logger}
}

// Build assembles insights, recommendations, and chart specs.
func (s *Synthesizer) Build(in Inputs) Output {
	out := Output{
		AIInsights:      s.aiInsights(in),
		Insights:        s.standardInsights(in),
		Recommendations: s.recommendations(in),
		ChartSpecs:      s.chartSpecs(in),
	}

	head := out.Insights
	if len(head) > 3 {
		head = head[:3]
	}
	out.Summary = joinPipe(head)

	return out
}

// aiInsights emits at most MaxInsights sentences in fixed priority order:
// quality headline, temporal delta, largest segment, anomalies, strongest
// correlation, dataset-scale footer.
func (s *Synthesizer) aiInsights(in Inputs) []string {
	insights := make([]string, 0, s.cfg.MaxInsights)

	insights = append(insights, fmt.Sprintf("Data quality score is %.1f/100 (%.1f%% complete)",
		in.Profile.Quality.OverallScore, in.Profile.Quality.Completeness))

	if in.Temporal != nil && in.Temporal.Enabled && in.Temporal.Delta != nil {
		insights = append(insights, temporalSentence(in.Temporal))
	}

	if name, summary, ok := largestSegment(in.Segments); ok {
		insights = append(insights, fmt.Sprintf("%s is your largest segment (%s of rows)", name, summary.Pct))
	}

	if in.Anomalies != nil && in.Anomalies.Enabled && in.Anomalies.TotalCount > 0 {
		insights = append(insights, fmt.Sprintf("%d anomalies detected (%s) - investigate for fraud or data errors",
			in.Anomalies.TotalCount, in.Anomalies.Pct))
	}

	if pair, r, ok := strongestCorrelation(in.Correlations); ok {
		insights = append(insights, fmt.Sprintf("Strong correlation between %s (r=%.2f)", pair, r))
	}

	insights = append(insights, fmt.Sprintf("Dataset spans %d rows across %d columns",
		in.Dataset.RowCount(), in.Dataset.ColumnCount()))

	if len(insights) > s.cfg.MaxInsights {
		insights = insights[:s.cfg.MaxInsights]
	}
	return insights
}

func temporalSentence(t *temporal.Result) string {
	delta := t.Delta
	if delta.Pct == nil {
		return fmt.Sprintf("%s moved by %+.2f in the last %s period", t.TargetMetric, delta.Absolute, t.Grain)
	}
	direction := "up"
	if *delta.Pct < 0 {
		direction = "down"
	}
	return fmt.Sprintf("%s is %s %.1f%% versus the previous %s period", t.TargetMetric, direction, math.Abs(*delta.Pct), t.Grain)
}

// standardInsights is the scale-oriented list backing the summary line.
func (s *Synthesizer) standardInsights(in Inputs) []string {
	insights := []string{
		fmt.Sprintf("Analyzed %d rows and %d columns", in.Dataset.RowCount(), in.Dataset.ColumnCount()),
		fmt.Sprintf("Found %d numeric columns for ML analysis", len(in.Profile.NumericColumns())),
	}

	if in.Segments != nil && in.Segments.Enabled {
		insights = append(insights, fmt.Sprintf("Identified %d data segments", in.Segments.K))
	}
	if in.Anomalies != nil && in.Anomalies.Enabled && in.Anomalies.TotalCount > 0 {
		insights = append(insights, fmt.Sprintf("Detected %d anomalies (%s)", in.Anomalies.TotalCount, in.Anomalies.Pct))
	}
	if len(in.Trends) > 0 {
		insights = append(insights, fmt.Sprintf("Detected %d columns with significant trends", len(in.Trends)))
	}
	if len(in.Correlations) > 0 {
		insights = append(insights, fmt.Sprintf("Found %d strong correlations", len(in.Correlations)))
	}

	return insights
}

// recommendations applies the fixed trigger list, capped at
// MaxRecommendations: missing-value cleanup, anomaly review, trend action,
// segment differentiation.
func (s *Synthesizer) recommendations(in Inputs) []Recommendation {
	recs := make([]Recommendation, 0, s.cfg.MaxRecommendations)

	if in.Anomalies != nil && in.Anomalies.Enabled && in.Anomalies.TotalCount > 0 {
		recs = append(recs, Recommendation{
			Priority: "HIGH",
			Action:   fmt.Sprintf("Investigate %d anomalies", in.Anomalies.TotalCount),
			Reason:   fmt.Sprintf("Potential fraud or data errors (%s of data)", in.Anomalies.Pct),
			Impact:   "Prevent revenue loss",
		})
	}

	if in.Profile.Quality.MissingValues > 0 {
		recs = append(recs, Recommendation{
			Priority: "MEDIUM",
			Action:   fmt.Sprintf("Clean %d missing values", in.Profile.Quality.MissingValues),
			Reason:   "Improve data reliability",
			Impact:   "Better ML predictions",
		})
	}

	if in.Temporal != nil && in.Temporal.Enabled && in.Temporal.Delta != nil && in.Temporal.Delta.Pct != nil {
		pct := *in.Temporal.Delta.Pct
		if math.Abs(pct) > s.cfg.TrendFloor {
			if pct < 0 {
				recs = append(recs, Recommendation{
					Priority: "HIGH",
					Action:   fmt.Sprintf("Investigate the %.1f%% decline in %s", math.Abs(pct), in.Temporal.TargetMetric),
					Reason:   "Latest period fell below the previous one",
					Impact:   "Arrest the downward trend early",
				})
			} else {
				recs = append(recs, Recommendation{
					Priority: "MEDIUM",
					Action:   fmt.Sprintf("Scale what drives the %.1f%% growth in %s", pct, in.Temporal.TargetMetric),
					Reason:   "Latest period outgrew the previous one",
					Impact:   "Compound the upward trend",
				})
			}
		}
	}

	if in.Segments != nil && in.Segments.Enabled && len(in.Segments.Segments) >= 2 {
		recs = append(recs, Recommendation{
			Priority: "MEDIUM",
			Action:   fmt.Sprintf("Create targeted strategies for %d segments", in.Segments.K),
			Reason:   "Segments show different behavior patterns",
			Impact:   "Increase conversion by addressing each segment",
		})
	}

	if len(recs) > s.cfg.MaxRecommendations {
		recs = recs[:s.cfg.MaxRecommendations]
	}
	return recs
}

// chartSpecs emits UI hints for the stages that produced visualizable output.
func (s *Synthesizer) chartSpecs(in Inputs) []ChartSpec {
	specs := make([]ChartSpec, 0, 3)

	if in.Temporal != nil && in.Temporal.Enabled {
		specs = append(specs, ChartSpec{
			Type:  "line",
			Title: fmt.Sprintf("%s by %s period", in.Temporal.TargetMetric, in.Temporal.Grain),
			X:     "period",
			Y:     in.Temporal.TargetMetric,
			Data:  in.Temporal.Periods,
		})
	}

	if in.Segments != nil && in.Segments.Enabled {
		sizes := make(map[string]int, len(in.Segments.Segments))
		for name, summary := range in.Segments.Segments {
			sizes[name] = summary.Size
		}
		specs = append(specs, ChartSpec{
			Type:  "bar",
			Title: "Segment sizes",
			X:     "segment",
			Y:     "rows",
			Data:  sizes,
		})
	}

	if pair, _, ok := strongestCorrelation(in.Correlations); ok {
		specs = append(specs, ChartSpec{
			Type:  "scatter",
			Title: fmt.Sprintf("Correlation: %s", pair),
		})
	}

	return specs
}

// largestSegment picks the segment with the most rows; ties resolve to the
// lexicographically smaller name so output stays deterministic.
func largestSegment(res *segment.Result) (string, segment.Summary, bool) {
	if res == nil || !res.Enabled || len(res.Segments) == 0 {
		return "", segment.Summary{}, false
	}

	names := make([]string, 0, len(res.Segments))
	for name := range res.Segments {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if res.Segments[name].Size > res.Segments[best].Size {
			best = name
		}
	}
	return best, res.Segments[best], true
}

// strongestCorrelation picks the pair with the largest |r|, key ascending on ties.
func strongestCorrelation(correlations map[string]float64) (string, float64, bool) {
	if len(correlations) == 0 {
		return "", 0, false
	}

	keys := make([]string, 0, len(correlations))
	for key := range correlations {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	best := keys[0]
	for _, key := range keys[1:] {
		if math.Abs(correlations[key]) > math.Abs(correlations[best]) {
			best = key
		}
	}
	return best, correlations[best], true
}

func joinPipe(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " | "
		}
		out += p
	}
	return out
}
