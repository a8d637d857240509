package evbuffer

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsTracksLifetimeCounters(t *testing.T) {
	b := New()
	_, _ = b.Add([]byte("abcdef"))
	_, _ = b.Drain(3)

	s := b.Stats()
	assert.Equal(t, int64(6), s.BytesAdded)
	assert.Equal(t, int64(3), s.BytesDrained)
	assert.GreaterOrEqual(t, s.SegmentsAlloc, int64(1))
}

func TestWithMetricsRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	b := New(WithMetrics(reg, "test"))
	_, err := b.Add([]byte("x"))
	require.NoError(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["test_evbuffer_bytes_added_total"])
}
