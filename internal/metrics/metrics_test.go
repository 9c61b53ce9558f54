package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveUpstream(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveUpstream("worldbank", "indicator", "200", 15*time.Millisecond)
	m.ObserveUpstream("worldbank", "indicator", "200", 5*time.Millisecond)
	m.ObserveUpstream("worldbank", "country", "error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("worldbank", "indicator", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("worldbank", "country", "error")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestObserveOperationAnonymous(t *testing.T) {
	m := New(nil)
	m.ObserveOperation("", "ok", time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("anonymous", "ok")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream("worldbank", "country", "200", time.Second)
		m.ObserveOperation("q", "ok", time.Second)
		m.ObserveHTTP("GET", "200")
	})
}
