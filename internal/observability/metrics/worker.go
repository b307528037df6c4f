package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	reindexTotal    *prometheus.CounterVec
	reindexDuration *prometheus.HistogramVec
	reindexInFlight prometheus.Gauge
	driftFindings   *prometheus.GaugeVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	reindexTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "worker",
			Name:      "note_reindex_total",
			Help:      "Total reindexed notes by status.",
		},
		[]string{"service", "status"},
	)
	reindexDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "worker",
			Name:      "note_reindex_duration_seconds",
			Help:      "Note reindex duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	reindexInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ragchat",
			Subsystem: "worker",
			Name:      "note_reindex_in_flight",
			Help:      "Number of in-flight note reindex tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	driftFindings := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ragchat",
			Subsystem: "worker",
			Name:      "drift_findings",
			Help:      "Findings from the most recent drift scan.",
		},
		[]string{"service", "repairable"},
	)

	registry.MustRegister(reindexTotal, reindexDuration, reindexInFlight, driftFindings)

	return &WorkerMetrics{
		registry:        registry,
		reindexTotal:    reindexTotal,
		reindexDuration: reindexDuration,
		reindexInFlight: reindexInFlight,
		driftFindings:   driftFindings,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartReindex() {
	m.reindexInFlight.Inc()
}

func (m *WorkerMetrics) FinishReindex(service string, duration time.Duration, err error) {
	m.reindexInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.reindexTotal.WithLabelValues(service, status).Inc()
	m.reindexDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordDriftScan(service string, repairable, ambiguous int) {
	m.driftFindings.WithLabelValues(service, "true").Set(float64(repairable))
	m.driftFindings.WithLabelValues(service, "false").Set(float64(ambiguous))
}
