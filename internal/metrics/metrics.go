// Package metrics provides Prometheus metrics for trendcore
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for trendcore.
// Each instance owns its registry so tests and multiple servers don't collide.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Query path metrics
	CacheLookupsTotal   *prometheus.CounterVec
	SkippedTotal        prometheus.Counter
	IngestedSnapshots   *prometheus.CounterVec
	LastIngestTimestamp prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendcore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendcore_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.CacheLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendcore_cache_lookups_total",
			Help: "Result cache lookups by operation and outcome",
		},
		[]string{"operation", "result"},
	)

	m.SkippedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "trendcore_snapshots_skipped_total",
			Help: "Snapshots skipped because they could not be read",
		},
	)

	m.IngestedSnapshots = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendcore_ingest_snapshots_total",
			Help: "Snapshots handled by ingestion runs by outcome",
		},
		[]string{"outcome"},
	)

	m.LastIngestTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "trendcore_last_ingest_timestamp_seconds",
			Help: "Unix time of the last completed ingestion run",
		},
	)

	return m
}

// Registry returns the registry the metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records an HTTP request
func (m *Metrics) ObserveRequest(route string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// CacheLookup records a result cache hit or miss
func (m *Metrics) CacheLookup(op string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(op, result).Inc()
}

// SnapshotsSkipped records unreadable snapshots
func (m *Metrics) SnapshotsSkipped(n int) {
	if n > 0 {
		m.SkippedTotal.Add(float64(n))
	}
}

// RecordIngest records the outcome of one ingestion run
func (m *Metrics) RecordIngest(at time.Time, imported, skipped, failed int) {
	m.IngestedSnapshots.WithLabelValues("imported").Add(float64(imported))
	m.IngestedSnapshots.WithLabelValues("skipped").Add(float64(skipped))
	m.IngestedSnapshots.WithLabelValues("failed").Add(float64(failed))
	m.LastIngestTimestamp.Set(float64(at.Unix()))
}
