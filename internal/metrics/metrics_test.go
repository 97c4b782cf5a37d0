package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrql-builder-backend/internal/metrics"
)

func TestCollectorsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Compilations.WithLabelValues(metrics.ResultOK).Inc()
	m.Compilations.WithLabelValues(metrics.ResultOK).Inc()
	m.Compilations.WithLabelValues(metrics.ResultNoMetric).Inc()
	m.AuditStaleQueries.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Compilations.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compilations.WithLabelValues(metrics.ResultNoMetric)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AuditStaleQueries))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "nrql_builder_compilations_total")
	assert.Contains(t, names, "nrql_builder_audit_stale_queries")
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	assert.Panics(t, func() { metrics.New(reg) })
}
