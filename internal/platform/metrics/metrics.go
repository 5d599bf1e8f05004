package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the pipeline. Counters are
// labeled by stage so dashboards can compare ingest, clean, and aggregate
// throughput on one panel.
type Metrics struct {
	registry *prometheus.Registry

	RecordsAccepted *prometheus.CounterVec
	RecordsRejected *prometheus.CounterVec
	RecordsWritten  *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	StageRuns       *prometheus.CounterVec
}

// New creates and registers all pipeline metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RecordsAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketmind_records_accepted_total",
			Help: "Records that passed a stage's validation.",
		}, []string{"stage"}),
		RecordsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketmind_records_rejected_total",
			Help: "Records dropped by a stage's validation.",
		}, []string{"stage"}),
		RecordsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketmind_records_written_total",
			Help: "Documents committed to a stage's destination collection.",
		}, []string{"stage"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketmind_stage_duration_seconds",
			Help:    "Wall-clock duration of a full stage run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage"}),
		StageRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketmind_stage_runs_total",
			Help: "Stage runs by outcome.",
		}, []string{"stage", "outcome"}),
	}
}

// Registry exposes the private registry for the ops HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
