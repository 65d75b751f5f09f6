package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is shared with the converter so per-item outcomes land in the same registry.
type Metrics struct {
	registry          *prometheus.Registry
	requestTotal      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	rateLimitRejected *prometheus.CounterVec
	itemsTotal        *prometheus.CounterVec
	outputBytes       *prometheus.CounterVec
	batchesTotal      *prometheus.CounterVec
	downloadsTotal    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_api_requests_total",
			Help: "Total HTTP requests handled by the API.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixelconvert_api_request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_api_rate_limit_rejections_total",
			Help: "Total API requests rejected by rate limiting.",
		}, []string{"route"}),
		itemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_conversion_items_total",
			Help: "Uploaded files by target format and outcome.",
		}, []string{"target", "outcome"}),
		outputBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_conversion_output_bytes_total",
			Help: "Bytes of encoded output by target format.",
		}, []string{"target"}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_conversion_batches_total",
			Help: "Convert requests by result: single, archive or failed.",
		}, []string{"result"}),
		downloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_downloads_total",
			Help: "Download requests by status.",
		}, []string{"status"}),
	}
	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.rateLimitRejected,
		m.itemsTotal,
		m.outputBytes,
		m.batchesTotal,
		m.downloadsTotal,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveItem is a pipeline.ItemObserver.
func (m *Metrics) ObserveItem(target domain.OutputFormat, item pipeline.Item) {
	m.itemsTotal.WithLabelValues(string(target), itemOutcome(item)).Inc()
	if item.Output != nil {
		m.outputBytes.WithLabelValues(string(target)).Add(float64(len(item.Output.Data)))
	}
}

func itemOutcome(item pipeline.Item) string {
	var (
		decodeErr *pipeline.DecodeError
		encodeErr *pipeline.EncodeError
	)
	switch {
	case item.Err == nil:
		return "converted"
	case errors.Is(item.Err, pipeline.ErrUnsupportedFormat):
		return "unsupported"
	case errors.Is(item.Err, pipeline.ErrFileTooLarge):
		return "too_large"
	case errors.Is(item.Err, pipeline.ErrRedundantConversion):
		return "redundant"
	case errors.As(item.Err, &decodeErr):
		return "decode_error"
	case errors.As(item.Err, &encodeErr):
		return "encode_error"
	default:
		return "error"
	}
}

func (m *Metrics) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := routeLabel(r)
		status := statusLabel(recorder.status)

		m.requestTotal.WithLabelValues(r.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

func statusLabel(status int) string {
	return strconv.Itoa(status)
}

// routeLabel reports the matched chi pattern, keeping download names out of label values.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
