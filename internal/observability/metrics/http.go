package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	resolutionsTotal           *prometheus.CounterVec
	resolutionDuration         *prometheus.HistogramVec
	resolutionCandidates       *prometheus.HistogramVec
	embeddingsUnavailableTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphres",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "graphres",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "graphres",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	resolutionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphres",
			Subsystem: "resolve",
			Name:      "resolutions_total",
			Help:      "Total completed resolutions by decision.",
		},
		[]string{"service", "action"},
	)
	resolutionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "graphres",
			Subsystem: "resolve",
			Name:      "duration_seconds",
			Help:      "Resolution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	resolutionCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "graphres",
			Subsystem: "resolve",
			Name:      "candidates",
			Help:      "Distribution of surviving candidates per resolution.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	embeddingsUnavailableTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphres",
			Subsystem: "resolve",
			Name:      "embeddings_unavailable_total",
			Help:      "Total resolutions that ran without the semantic strategy.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		resolutionsTotal,
		resolutionDuration,
		resolutionCandidates,
		embeddingsUnavailableTotal,
	)

	return &HTTPServerMetrics{
		registry:                   registry,
		requestTotal:               requestTotal,
		requestDuration:            requestDuration,
		requestInFlight:            requestInFlight,
		resolutionsTotal:           resolutionsTotal,
		resolutionDuration:         resolutionDuration,
		resolutionCandidates:       resolutionCandidates,
		embeddingsUnavailableTotal: embeddingsUnavailableTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
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
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/nodes/"):
		return "/v1/nodes/{node_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordResolution(service, action string, candidateCount int, embeddingsAvailable bool, duration time.Duration) {
	if action == "" {
		action = "unknown"
	}
	m.resolutionsTotal.WithLabelValues(service, action).Inc()
	m.resolutionDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.resolutionCandidates.WithLabelValues(service).Observe(float64(candidateCount))
	if !embeddingsAvailable {
		m.embeddingsUnavailableTotal.WithLabelValues(service).Inc()
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

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
