// Package metrics provides Prometheus metrics for the ingestion pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all pipeline metrics. A disabled instance is a no-op so
// callers never need nil checks beyond the methods here.
type Metrics struct {
	RecordsAdapted *prometheus.CounterVec
	RecordsDropped *prometheus.CounterVec
	FieldsNulled   *prometheus.CounterVec
	RecordsLoaded  *prometheus.CounterVec
	RecordsFailed  *prometheus.CounterVec

	LoadDuration  prometheus.Histogram
	ActiveWorkers prometheus.Gauge

	registry *prometheus.Registry
	enabled  bool
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// ApplyDefaults sets default values for metrics config.
func (c *Config) ApplyDefaults() {
	if c.Address == "" {
		c.Address = ":9090"
	}
}

// New creates a new metrics instance.
func New(cfg Config) *Metrics {
	cfg.ApplyDefaults()

	m := &Metrics{
		enabled:  cfg.Enabled,
		registry: prometheus.NewRegistry(),
	}
	if !cfg.Enabled {
		return m
	}

	m.RecordsAdapted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingester",
			Name:      "records_adapted_total",
			Help:      "Canonical records produced by source adapters",
		},
		[]string{"source"},
	)
	m.RecordsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingester",
			Name:      "records_dropped_total",
			Help:      "Records dropped by hard validation rules",
		},
		[]string{"source"},
	)
	m.FieldsNulled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingester",
			Name:      "fields_nulled_total",
			Help:      "Fields nulled by soft validation rules",
		},
		[]string{"source"},
	)
	m.RecordsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingester",
			Name:      "records_loaded_total",
			Help:      "Records upserted into the store",
		},
		[]string{"source"},
	)
	m.RecordsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingester",
			Name:      "records_failed_total",
			Help:      "Per-record write failures by kind",
		},
		[]string{"source", "kind"},
	)
	m.LoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ingester",
			Name:      "record_load_duration_seconds",
			Help:      "Time taken to upsert one record",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
	m.ActiveWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ingester",
			Name:      "active_workers",
			Help:      "Number of loader workers currently running",
		},
	)

	m.registry.MustRegister(
		m.RecordsAdapted,
		m.RecordsDropped,
		m.FieldsNulled,
		m.RecordsLoaded,
		m.RecordsFailed,
		m.LoadDuration,
		m.ActiveWorkers,
	)
	return m
}

// Handler returns the scrape handler for the internal registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AddAdapted records adapter output for a source.
func (m *Metrics) AddAdapted(source string, n int) {
	if m.enabled {
		m.RecordsAdapted.WithLabelValues(source).Add(float64(n))
	}
}

// AddValidation records validation outcomes for a source.
func (m *Metrics) AddValidation(source string, dropped, nulled int) {
	if m.enabled {
		m.RecordsDropped.WithLabelValues(source).Add(float64(dropped))
		m.FieldsNulled.WithLabelValues(source).Add(float64(nulled))
	}
}

// RecordLoad records the outcome of one per-record write.
func (m *Metrics) RecordLoad(source, failKind string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.LoadDuration.Observe(d.Seconds())
	if failKind == "" {
		m.RecordsLoaded.WithLabelValues(source).Inc()
	} else {
		m.RecordsFailed.WithLabelValues(source, failKind).Inc()
	}
}

// SetActiveWorkers sets the worker gauge.
func (m *Metrics) SetActiveWorkers(n int) {
	if m.enabled {
		m.ActiveWorkers.Set(float64(n))
	}
}
