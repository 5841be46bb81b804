package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/dataset"
)

func buildRows(n int, extremeAt int) *dataset.Dataset {
	ds := &dataset.Dataset{Columns: []string{"amount", "qty"}}
	for i := 0; i < n; i++ {
		amount := float64(i%10) + 1
		qty := float64(i%5) + 1
		if i == extremeAt {
			amount = 10000
			qty = 500
		}
		ds.Rows = append(ds.Rows, dataset.Row{"amount": amount, "qty": qty})
	}
	ds.SourceRows = n
	return ds
}

func TestRunFlagsExtremeRow(t *testing.T) {
	d := New(config.Default(), zap.NewNop())
	ds := buildRows(40, 17)

	res := d.Run(ds, []string{"amount", "qty"})

	require.True(t, res.Enabled, "reason: %s", res.Reason)
	require.GreaterOrEqual(t, res.TotalCount, 1)
	require.NotEmpty(t, res.Top5)

	assert.Equal(t, 17, res.Top5[0].RowIndex, "most anomalous row first")
	assert.Equal(t, float64(10000), res.Top5[0].Values["amount"])
	assert.Greater(t, res.Top5[0].Score, 0.0)
	assert.Greater(t, res.Threshold, 0.0)
	assert.NotEmpty(t, res.Pct)
}

func TestRunTop3IsPrefixOfTop5(t *testing.T) {
	d := New(config.Default(), zap.NewNop())
	res := d.Run(buildRows(40, 17), []string{"amount", "qty"})
	require.True(t, res.Enabled)

	assert.LessOrEqual(t, len(res.Top3), 3)
	assert.LessOrEqual(t, len(res.Top5), 5)
	for i, sample := range res.Top3 {
		assert.Equal(t, res.Top5[i], sample)
	}
}

func TestRunTooFewRows(t *testing.T) {
	d := New(config.Default(), zap.NewNop())
	res := d.Run(buildRows(10, 3), []string{"amount", "qty"})

	assert.False(t, res.Enabled)
	assert.Contains(t, res.Reason, "too few rows")
	assert.Equal(t, "0.00%", res.Pct)
	assert.Empty(t, res.Top5)
}

func TestRunNoFeatures(t *testing.T) {
	d := New(config.Default(), zap.NewNop())

	ds := &dataset.Dataset{Columns: []string{"name"}}
	for i := 0; i < 30; i++ {
		ds.Rows = append(ds.Rows, dataset.Row{"name": "row"})
	}

	res := d.Run(ds, nil)
	assert.False(t, res.Enabled)
	assert.Contains(t, res.Reason, "no numeric features")
}

func TestRunDeterministic(t *testing.T) {
	d := New(config.Default(), zap.NewNop())

	first := d.Run(buildRows(60, 31), []string{"amount", "qty"})
	second := d.Run(buildRows(60, 31), []string{"amount", "qty"})

	require.True(t, first.Enabled)
	assert.Equal(t, first.TotalCount, second.TotalCount)
	assert.Equal(t, first.Threshold, second.Threshold)
	assert.Equal(t, first.Top5, second.Top5)
}

func TestFallbackQuantileWhenScoresAreFlat(t *testing.T) {
	d := New(config.Default(), zap.NewNop())

	// Identical rows produce all-zero scores; the IQR rule degenerates and
	// the fallback quantile flags nothing above threshold zero.
	ds := &dataset.Dataset{Columns: []string{"v", "w"}}
	for i := 0; i < 30; i++ {
		ds.Rows = append(ds.Rows, dataset.Row{"v": 5.0, "w": 1.0})
	}

	res := d.Run(ds, []string{"v", "w"})
	if res.Enabled {
		assert.Zero(t, res.TotalCount)
	} else {
		assert.NotEmpty(t, res.Reason)
	}
}
