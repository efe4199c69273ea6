package cleaner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

func TestMedian(t *testing.T) {
	require.Equal(t, 3.0, median([]float64{5, 1, 3}))
	require.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	require.Equal(t, 7.0, median([]float64{7}))
}

func TestQuantileInterpolates(t *testing.T) {
	sorted := []float64{18, 30, 42, 70}

	require.Equal(t, 18.0, quantile(sorted, 0))
	require.Equal(t, 27.0, quantile(sorted, 0.25))
	require.Equal(t, 36.0, quantile(sorted, 0.5))
	require.Equal(t, 49.0, quantile(sorted, 0.75))
	require.Equal(t, 70.0, quantile(sorted, 1))
	require.Equal(t, 5.0, quantile([]float64{5}, 0.5))
}

func TestBucketFor(t *testing.T) {
	edges := []float64{10, 20, 30, 40, 50}

	require.Equal(t, 0, bucketFor(edges, 10))
	require.Equal(t, 0, bucketFor(edges, 20))
	require.Equal(t, 1, bucketFor(edges, 20.5))
	require.Equal(t, 3, bucketFor(edges, 50))
	require.Equal(t, -1, bucketFor(edges, 9))
	require.Equal(t, -1, bucketFor(edges, 51))
}

func TestToFloat(t *testing.T) {
	f, ok := toFloat(" 4.5 ")
	require.True(t, ok)
	require.Equal(t, 4.5, f)

	f, ok = toFloat(int64(3))
	require.True(t, ok)
	require.Equal(t, 3.0, f)

	for _, v := range []interface{}{nil, "", "n/a", math.NaN(), "NaN", true} {
		_, ok := toFloat(v)
		require.False(t, ok, "%v", v)
	}
}

func TestProfile(t *testing.T) {
	tbl, err := model.NewTable([]model.Column{
		{Name: "age", Kind: model.KindInt},
		{Name: "color", Kind: model.KindString},
	})
	require.NoError(t, err)
	tbl.AppendRow(model.Row{"age": int64(20), "color": "gray"})
	tbl.AppendRow(model.Row{"age": int64(40), "color": "teal"})
	tbl.AppendRow(model.Row{"color": "gray"})

	profiles := Profile(tbl)
	require.Len(t, profiles, 2)

	age := profiles[0]
	require.True(t, age.Numeric)
	require.Equal(t, 2, age.Count)
	require.Equal(t, 1, age.Missing)
	require.Equal(t, 30.0, age.Mean)
	require.InDelta(t, math.Sqrt(200), age.Std, 1e-9)
	require.Equal(t, 20.0, age.Min)
	require.Equal(t, 40.0, age.Max)

	color := profiles[1]
	require.False(t, color.Numeric)
	require.Equal(t, 3, color.Count)
	require.Equal(t, 2, color.Unique)
	require.Equal(t, "gray", color.Top)
	require.Equal(t, 2, color.Freq)
}
