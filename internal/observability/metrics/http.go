package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatRequestsTotal  *prometheus.CounterVec
	chatNoContextTotal *prometheus.CounterVec
	chatContextBlocks  *prometheus.HistogramVec
	chatDuration       *prometheus.HistogramVec
	authzDeniedTotal   *prometheus.CounterVec

	retrievalBlockedTotal prometheus.Counter
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ragchat",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total successful chat requests by query type.",
		},
		[]string{"service", "query_type"},
	)
	chatNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "chat",
			Name:      "no_context_total",
			Help:      "Total chat requests answered without retrieved context.",
		},
		[]string{"service"},
	)
	chatContextBlocks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "chat",
			Name:      "context_blocks",
			Help:      "Distribution of retrieved context blocks per chat request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "query_type"},
	)
	authzDeniedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "authz",
			Name:      "denied_total",
			Help:      "Total requests rejected by authorization checks.",
		},
		[]string{"service", "path"},
	)

	retrievalBlockedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "retrieval",
			Name:      "blocked_matches_total",
			Help:      "Total vector matches discarded by the client-side authorization filter.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		chatNoContextTotal,
		chatContextBlocks,
		chatDuration,
		authzDeniedTotal,
		retrievalBlockedTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		chatRequestsTotal:     chatRequestsTotal,
		chatNoContextTotal:    chatNoContextTotal,
		chatContextBlocks:     chatContextBlocks,
		chatDuration:          chatDuration,
		authzDeniedTotal:      authzDeniedTotal,
		retrievalBlockedTotal: retrievalBlockedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordChat(service, queryType string, contextBlocks int, duration time.Duration) {
	if queryType == "" {
		queryType = "unknown"
	}
	m.chatRequestsTotal.WithLabelValues(service, queryType).Inc()
	m.chatContextBlocks.WithLabelValues(service).Observe(float64(contextBlocks))
	m.chatDuration.WithLabelValues(service, queryType).Observe(duration.Seconds())

	if contextBlocks == 0 {
		m.chatNoContextTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordAuthzDenied(service, path string) {
	m.authzDeniedTotal.WithLabelValues(service, path).Inc()
}

// RecordBlockedMatches counts vector matches the retrieval pipeline dropped
// because their metadata named a client the user may not view.
func (m *HTTPServerMetrics) RecordBlockedMatches(count int) {
	if count > 0 {
		m.retrievalBlockedTotal.Add(float64(count))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
