package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry      *prometheus.Registry
	sweepsTotal   *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	removedTotal  *prometheus.CounterVec
	lastSweep     prometheus.Gauge
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		sweepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_worker_sweeps_total",
			Help: "Total cleanup sweeps by final status.",
		}, []string{"status"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pixelconvert_worker_sweep_duration_seconds",
			Help:    "Duration of each cleanup sweep.",
			Buckets: prometheus.DefBuckets,
		}),
		removedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_worker_files_removed_total",
			Help: "Total expired files removed, by location.",
		}, []string{"location"}),
		lastSweep: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixelconvert_worker_last_sweep_timestamp_seconds",
			Help: "Unix time of the last completed sweep.",
		}),
	}

	registry.MustRegister(
		m.sweepsTotal,
		m.sweepDuration,
		m.removedTotal,
		m.lastSweep,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
