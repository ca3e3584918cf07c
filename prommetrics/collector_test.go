package prommetrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecflat"
)

func TestCollectorWithIndex(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc, err := New(WithRegisterer(reg), WithConstLabels(prometheus.Labels{"index": "test"}))
	require.NoError(t, err)

	idx, err := vecflat.New(2, vecflat.WithMetricsCollector(mc))
	require.NoError(t, err)

	_, err = idx.Add([][]float32{{0, 0}, {1, 0}, {0, 1}})
	require.NoError(t, err)
	_, err = idx.Add([][]float32{{1}})
	require.Error(t, err)

	_, err = idx.MarkDeleted(1)
	require.NoError(t, err)

	_, err = idx.Search([][]float32{{0, 0}}, 2)
	require.NoError(t, err)
	_, err = idx.RangeSearch([][]float32{{0, 0}}, 2)
	require.NoError(t, err)

	assert.Equal(t, 3.0, promtest.ToFloat64(mc.vectors.WithLabelValues("add")))
	assert.Equal(t, 1.0, promtest.ToFloat64(mc.ops.WithLabelValues("add", "error")))
	assert.Equal(t, 1.0, promtest.ToFloat64(mc.pending))
	assert.Equal(t, 2.0, promtest.ToFloat64(mc.distances))
	assert.Equal(t, 2.0, promtest.ToFloat64(mc.rangeResults))

	idx.Reset()
	assert.Equal(t, 0.0, promtest.ToFloat64(mc.pending))

	expected := `
# HELP vecflat_free_slots Deleted slots waiting for reuse.
# TYPE vecflat_free_slots gauge
vecflat_free_slots{index="test"} 0
`
	require.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "vecflat_free_slots"))
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(WithRegisterer(reg))
	require.NoError(t, err)

	_, err = New(WithRegisterer(reg))
	assert.Error(t, err)

	_, err = New(WithRegisterer(reg), WithNamespace("other"))
	assert.NoError(t, err)
}
