package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasleuth/datasleuth/pkg/dataset"
)

func TestBuild(t *testing.T) {
	t.Run("selects by variance and caps features", func(t *testing.T) {
		ds := &dataset.Dataset{Columns: []string{"wide", "narrow", "flat"}}
		for i := 0; i < 10; i++ {
			ds.Rows = append(ds.Rows, dataset.Row{
				"wide":   float64(i) * 100,
				"narrow": float64(i),
				"flat":   1.0,
			})
		}

		m := Build(ds, []string{"wide", "narrow", "flat"}, 2)
		require.NotNil(t, m)
		assert.Equal(t, []string{"wide", "narrow"}, m.Columns)
		assert.Len(t, m.Raw, 10)
		assert.Len(t, m.Raw[0], 2)
	})

	t.Run("imputes missing cells with the column mean", func(t *testing.T) {
		ds := &dataset.Dataset{Columns: []string{"v"}}
		for _, cell := range []interface{}{1.0, nil, 3.0} {
			ds.Rows = append(ds.Rows, dataset.Row{"v": cell})
		}

		m := Build(ds, []string{"v"}, 0)
		require.NotNil(t, m)
		assert.Equal(t, 2.0, m.Raw[1][0])
	})

	t.Run("zero variance column standardizes to zeros", func(t *testing.T) {
		ds := &dataset.Dataset{Columns: []string{"flat"}}
		for i := 0; i < 5; i++ {
			ds.Rows = append(ds.Rows, dataset.Row{"flat": 9.0})
		}

		m := Build(ds, []string{"flat"}, 0)
		require.NotNil(t, m)
		for _, row := range m.Scaled {
			assert.Zero(t, row[0])
		}
	})

	t.Run("standardized columns have zero mean", func(t *testing.T) {
		ds := &dataset.Dataset{Columns: []string{"v"}}
		for i := 0; i < 20; i++ {
			ds.Rows = append(ds.Rows, dataset.Row{"v": float64(i * i)})
		}

		m := Build(ds, []string{"v"}, 0)
		require.NotNil(t, m)

		sum := 0.0
		for _, row := range m.Scaled {
			sum += row[0]
		}
		assert.InDelta(t, 0, sum, 1e-9)
	})

	t.Run("no usable columns returns nil", func(t *testing.T) {
		ds := &dataset.Dataset{Columns: []string{"s"}}
		for i := 0; i < 5; i++ {
			ds.Rows = append(ds.Rows, dataset.Row{"s": "text"})
		}

		assert.Nil(t, Build(ds, []string{"s"}, 0))
		assert.Nil(t, Build(ds, nil, 0))
	})

	t.Run("infinite cells are imputed", func(t *testing.T) {
		ds := &dataset.Dataset{Columns: []string{"v"}}
		for _, cell := range []interface{}{1.0, math.Inf(1), 3.0} {
			ds.Rows = append(ds.Rows, dataset.Row{"v": cell})
		}

		m := Build(ds, []string{"v"}, 0)
		require.NotNil(t, m)
		assert.Equal(t, 2.0, m.Raw[1][0], "Inf replaced by the finite mean")
	})
}
