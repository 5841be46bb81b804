package insight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datasleuth/datasleuth/pkg/anomaly"
	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
	"github.com/datasleuth/datasleuth/pkg/profile"
	"github.com/datasleuth/datasleuth/pkg/segment"
	"github.com/datasleuth/datasleuth/pkg/temporal"
)

func newSynthesizer() *Synthesizer {
	return New(config.Default(), zap.NewNop())
}

func smallDataset() *dataset.Dataset {
	ds := &dataset.Dataset{Columns: []string{"revenue", "region"}}
	for i := 0; i < 20; i++ {
		ds.Rows = append(ds.Rows, dataset.Row{"revenue": float64(i), "region": "emea"})
	}
	ds.SourceRows = 20
	return ds
}

func baseInputs() Inputs {
	return Inputs{
		Dataset: smallDataset(),
		Profile: &profile.Profile{
			Quality: profile.QualityScore{OverallScore: 92.5, Completeness: 88.0, NumericColumns: 1},
			Columns: []profile.ColumnProfile{
				{Name: "revenue", Kind: profile.KindNumeric},
				{Name: "region", Kind: profile.KindCategorical},
			},
		},
	}
}

// fullInputs triggers every insight rule at once.
func fullInputs() Inputs {
	pct := -12.5
	deltaPct := &pct

	in := baseInputs()
	in.Trends = map[string]string{"revenue": "-12.5%"}
	in.Correlations = map[string]float64{"revenue vs cost": 0.91, "qty vs cost": -0.65}
	in.Outliers = map[string]int{"revenue": 3}
	in.Segments = &segment.Result{
		Enabled: true,
		K:       2,
		Segments: map[string]segment.Summary{
			"Segment_1": {Size: 15, Pct: "75.0%"},
			"Segment_2": {Size: 5, Pct: "25.0%"},
		},
	}
	in.Anomalies = &anomaly.Result{Enabled: true, TotalCount: 4, Pct: "2.00%"}
	in.Temporal = &temporal.Result{
		Enabled:      true,
		TargetMetric: "revenue",
		Grain:        temporal.GrainMonthly,
		Delta:        &temporal.Delta{Absolute: -500, Pct: deltaPct},
	}
	in.Profile.Quality.MissingValues = 7
	return in
}

func TestBuildQualityHeadlineFirst(t *testing.T) {
	s := newSynthesizer()
	out := s.Build(baseInputs())

	require.NotEmpty(t, out.AIInsights)
	assert.Contains(t, out.AIInsights[0], "Data quality score is 92.5/100")
	assert.Contains(t, out.AIInsights[0], "88.0% complete")
}

func TestBuildCapsInsights(t *testing.T) {
	s := newSynthesizer()
	out := s.Build(fullInputs())

	// Six rules fire; the cap keeps the first five and drops the scale footer.
	assert.Len(t, out.AIInsights, 5)
	for _, insight := range out.AIInsights {
		assert.NotContains(t, insight, "Dataset spans")
	}
}

func TestBuildInsightPriorityOrder(t *testing.T) {
	s := newSynthesizer()
	out := s.Build(fullInputs())
	require.Len(t, out.AIInsights, 5)

	assert.Contains(t, out.AIInsights[0], "Data quality")
	assert.Contains(t, out.AIInsights[1], "revenue is down 12.5%")
	assert.Contains(t, out.AIInsights[2], "Segment_1 is your largest segment")
	assert.Contains(t, out.AIInsights[3], "4 anomalies detected")
	assert.Contains(t, out.AIInsights[4], "revenue vs cost")
}

func TestBuildRecommendations(t *testing.T) {
	s := newSynthesizer()

	t.Run("anomalies come first at HIGH", func(t *testing.T) {
		out := s.Build(fullInputs())
		require.NotEmpty(t, out.Recommendations)
		assert.Equal(t, "HIGH", out.Recommendations[0].Priority)
		assert.Contains(t, out.Recommendations[0].Action, "4 anomalies")
	})

	t.Run("capped at the maximum", func(t *testing.T) {
		out := s.Build(fullInputs())
		assert.LessOrEqual(t, len(out.Recommendations), config.Default().MaxRecommendations)
	})

	t.Run("decline triggers a HIGH trend action", func(t *testing.T) {
		out := s.Build(fullInputs())

		var found bool
		for _, rec := range out.Recommendations {
			if strings.Contains(rec.Action, "decline in revenue") {
				found = true
				assert.Equal(t, "HIGH", rec.Priority)
			}
		}
		assert.True(t, found)
	})

	t.Run("quiet dataset produces no recommendations", func(t *testing.T) {
		out := s.Build(baseInputs())
		assert.Empty(t, out.Recommendations)
	})
}

func TestBuildSummaryJoinsTopInsights(t *testing.T) {
	s := newSynthesizer()
	out := s.Build(fullInputs())

	parts := strings.Split(out.Summary, " | ")
	assert.Len(t, parts, 3)
	assert.Contains(t, parts[0], "Analyzed 20 rows")
}

func TestBuildChartSpecs(t *testing.T) {
	s := newSynthesizer()

	t.Run("full inputs yield line, bar and scatter", func(t *testing.T) {
		out := s.Build(fullInputs())
		require.Len(t, out.ChartSpecs, 3)

		types := make([]string, 0, 3)
		for _, spec := range out.ChartSpecs {
			types = append(types, spec.Type)
		}
		assert.ElementsMatch(t, []string{"line", "bar", "scatter"}, types)
	})

	t.Run("bare inputs yield none", func(t *testing.T) {
		out := s.Build(baseInputs())
		assert.Empty(t, out.ChartSpecs)
	})
}

func TestStrongestCorrelation(t *testing.T) {
	t.Run("largest absolute value wins", func(t *testing.T) {
		pair, r, ok := strongestCorrelation(map[string]float64{
			"a vs b": 0.7,
			"c vs d": -0.95,
		})
		require.True(t, ok)
		assert.Equal(t, "c vs d", pair)
		assert.Equal(t, -0.95, r)
	})

	t.Run("ties resolve to the smaller key", func(t *testing.T) {
		pair, _, ok := strongestCorrelation(map[string]float64{
			"b vs c": 0.8,
			"a vs b": -0.8,
		})
		require.True(t, ok)
		assert.Equal(t, "a vs b", pair)
	})

	t.Run("empty map", func(t *testing.T) {
		_, _, ok := strongestCorrelation(nil)
		assert.False(t, ok)
	})
}

func TestLargestSegment(t *testing.T) {
	res := &segment.Result{
		Enabled: true,
		Segments: map[string]segment.Summary{
			"Segment_1": {Size: 5, Pct: "25.0%"},
			"Segment_2": {Size: 15, Pct: "75.0%"},
		},
	}

	name, summary, ok := largestSegment(res)
	require.True(t, ok)
	assert.Equal(t, "Segment_2", name)
	assert.Equal(t, 15, summary.Size)

	_, _, ok = largestSegment(&segment.Result{Reason: "skipped"})
	assert.False(t, ok)
}
