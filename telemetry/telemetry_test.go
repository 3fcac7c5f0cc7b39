package telemetry

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopWithoutRegistry(t *testing.T) {
	require.Nil(t, registry)

	assert.Equal(t, NoopStat{}, NewCounter("x_total", "x"))
	assert.Equal(t, noopCounterVec{}, NewCounterVec("y_total", "y", "kind"))
	assert.Nil(t, GetMetricsHandler())

	// No-op metrics accept every call.
	ParamsBoundTotal.With("INT").Inc()
	OpenBlobs.Set(3)
	BlobSegmentBytes.Observe(10)
}

func TestRegisteredMetrics(t *testing.T) {
	registry = prometheus.NewRegistry()
	defer func() { registry = nil }()

	c := NewCounterVec("test_params_total", "test", "kind")
	c.With("BIGINT").Add(2)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "fbsql_test_params_total", families[0].GetName())
	assert.Equal(t, 2.0, families[0].GetMetric()[0].GetCounter().GetValue())
	assert.NotNil(t, GetMetricsHandler())
}

func TestHistogramBucketsAndLabels(t *testing.T) {
	registry = prometheus.NewRegistry()
	defer func() { registry = nil }()

	h := NewHistogram("test_segment_bytes", "test", SegmentSizeBuckets...)
	h.Observe(100)
	NewHistogramVec("test_duration_seconds", "test", StatementBuckets, "op").With("query").Observe(0.002)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 2)

	byName := map[string]int{}
	for i, f := range families {
		byName[f.GetName()] = i
	}
	seg := families[byName["fbsql_test_segment_bytes"]].GetMetric()[0]
	assert.Len(t, seg.GetHistogram().GetBucket(), len(SegmentSizeBuckets))
	assert.Equal(t, uint64(1), seg.GetHistogram().GetSampleCount())

	labels := map[string]string{}
	for _, lp := range seg.GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Contains(t, labels, "node_id")
	assert.Contains(t, labels, "engine")

	dur := families[byName["fbsql_test_duration_seconds"]].GetMetric()[0]
	assert.Len(t, dur.GetHistogram().GetBucket(), len(StatementBuckets))
}

type fakeStats struct {
	blobs, statements int
	calls             atomic.Int32
}

func (f *fakeStats) OpenBlobCount() int {
	f.calls.Add(1)
	return f.blobs
}

func (f *fakeStats) CachedStatementCount() int {
	return f.statements
}

func TestMetricsCollector(t *testing.T) {
	p := &fakeStats{blobs: 2, statements: 5}
	mc := NewMetricsCollector(time.Millisecond, p, nil)
	mc.Start()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, time.Millisecond)
	mc.Stop()
}
