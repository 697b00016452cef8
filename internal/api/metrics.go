package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus instruments for the HTTP surface and the
// engine operations behind it.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	purchasesTotal    prometheus.Counter
	receiptsTotal     *prometheus.CounterVec
	predictionsServed prometheus.Counter
}

// NewMetrics creates an isolated metrics registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartwheel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cartwheel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	purchasesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cartwheel",
		Subsystem: "engine",
		Name:      "purchases_recorded_total",
		Help:      "Total purchase events recorded.",
	})
	receiptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartwheel",
			Subsystem: "engine",
			Name:      "receipts_processed_total",
			Help:      "Total receipts processed, by parsing method.",
		},
		[]string{"method"},
	)
	predictionsServed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cartwheel",
		Subsystem: "engine",
		Name:      "predictions_served_total",
		Help:      "Total prediction passes served.",
	})

	registry.MustRegister(requestTotal, requestDuration, purchasesTotal, receiptsTotal, predictionsServed)

	return &Metrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		purchasesTotal:    purchasesTotal,
		receiptsTotal:     receiptsTotal,
		predictionsServed: predictionsServed,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request counting and timing.
func (m *Metrics) instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(r.Method, path, http.StatusText(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
