package report

import (
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	rep := New("exec-1")

	assert.False(t, rep.Success)
	assert.Equal(t, "exec-1", rep.ExecutionID)
	assert.Equal(t, "unknown", rep.FileEncoding)

	// Skipped-stage sections carry explicit defaults, never nils.
	require.NotNil(t, rep.Clusters)
	assert.Equal(t, "analysis not run", rep.Clusters.Reason)
	require.NotNil(t, rep.Anomalies)
	assert.Equal(t, "0.00%", rep.Anomalies.Pct)
	require.NotNil(t, rep.TimeAnalysis)
	assert.False(t, rep.Forecast.Available)
}

func TestRenderFreshReport(t *testing.T) {
	raw, err := New("exec-2").Render()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, gojson.Unmarshal(raw, &doc))

	// Even an untouched report serializes with arrays, not nulls.
	assert.Equal(t, []interface{}{}, doc["ai_insights"])
	assert.Equal(t, []interface{}{}, doc["run_notes"])
	assert.Equal(t, map[string]interface{}{}, doc["statistics"])
	assert.NotContains(t, doc, "error")
}
