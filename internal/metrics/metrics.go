package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Compile outcomes.
const (
	ResultOK            = "ok"
	ResultNoApplication = "no_application"
	ResultNoMetric      = "no_metric"
	ResultInvalidTime   = "invalid_time"
)

// Validation outcomes.
const (
	ValidationValid = "valid"
	ValidationStale = "stale"
)

type Metrics struct {
	Compilations      *prometheus.CounterVec
	Validations       *prometheus.CounterVec
	SavedQueries      *prometheus.CounterVec
	AuditRuns         *prometheus.CounterVec
	AuditStaleQueries prometheus.Gauge
}

// New registers the service collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Compilations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nrql_builder",
			Name:      "compilations_total",
			Help:      "Query compilations by outcome.",
		}, []string{"result"}),
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nrql_builder",
			Name:      "validations_total",
			Help:      "Saved state validations by outcome.",
		}, []string{"result"}),
		SavedQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nrql_builder",
			Name:      "saved_query_operations_total",
			Help:      "Saved query repository operations by kind and outcome.",
		}, []string{"operation", "result"}),
		AuditRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nrql_builder",
			Name:      "audit_runs_total",
			Help:      "Saved query audit runs by outcome.",
		}, []string{"result"}),
		AuditStaleQueries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nrql_builder",
			Name:      "audit_stale_queries",
			Help:      "Stale saved queries found by the last audit run.",
		}),
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
