// Package metrics provides Prometheus metrics for the merchandising ranker.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the ranker.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ranking
	rankingsComputed *prometheus.CounterVec
	rankingLatency   *prometheus.HistogramVec
	rankedProducts   *prometheus.GaugeVec
	mutations        *prometheus.CounterVec

	// Cache
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
	cacheEntries       prometheus.Gauge

	// Catalog
	catalogProducts  prometheus.Gauge
	catalogLoads     *prometheus.CounterVec
	malformedRecords *prometheus.CounterVec

	// Background work
	refreshRuns     *prometheus.CounterVec
	inventoryAlerts *prometheus.CounterVec
	publishes       *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "merch",
		subsystem:        "ranker",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.rankingsComputed = m.counterVec("rankings_computed_total",
		"Number of ranking computations by touchpoint", "touchpoint")
	m.rankingLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ranking_latency_seconds",
		Help:        "Time spent computing a ranking",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"touchpoint"})
	m.rankedProducts = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ranked_products",
		Help:        "Products in the latest ranking by touchpoint",
		ConstLabels: m.constLabels,
	}, []string{"touchpoint"})
	m.mutations = m.counterVec("mutations_total",
		"Engine state mutations by touchpoint and kind", "touchpoint", "kind")

	m.cacheHits = m.counterVec("cache_hits_total",
		"Ranking reads served from cache", "touchpoint")
	m.cacheMisses = m.counterVec("cache_misses_total",
		"Ranking reads that recomputed; forced is true for explicit refreshes", "touchpoint", "forced")
	m.cacheInvalidations = m.counterVec("cache_invalidations_total",
		"Cache entries dropped by mutations or catalog reloads", "touchpoint")
	m.cacheEntries = m.gauge("cache_entries", "Cached rankings currently held")

	m.catalogProducts = m.gauge("catalog_products", "Products in the current catalog snapshot")
	m.catalogLoads = m.counterVec("catalog_loads_total",
		"Catalog loads by source and outcome", "source", "outcome")
	m.malformedRecords = m.counterVec("catalog_malformed_records_total",
		"Catalog records rejected as malformed", "source")

	m.refreshRuns = m.counterVec("refresh_runs_total",
		"Scheduled refreshes by touchpoint and outcome", "touchpoint", "outcome")
	m.inventoryAlerts = m.counterVec("inventory_alerts_total",
		"Inventory alerts raised on refresh by touchpoint and kind", "touchpoint", "kind")
	m.publishes = m.counterVec("publishes_total",
		"Ranking snapshots published by touchpoint and outcome", "touchpoint", "outcome")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total",
		"Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordRankingComputed counts a ranking computation and sets its size.
func RecordRankingComputed(touchpoint string, products int) {
	globalManager.rankingsComputed.WithLabelValues(touchpoint).Inc()
	globalManager.rankedProducts.WithLabelValues(touchpoint).Set(float64(products))
}

// RecordRankingLatency records how long a ranking took to compute, in seconds.
func RecordRankingLatency(touchpoint string, seconds float64) {
	globalManager.rankingLatency.WithLabelValues(touchpoint).Observe(seconds)
}

// RecordMutation counts a state mutation of the given kind.
func RecordMutation(touchpoint, kind string) {
	globalManager.mutations.WithLabelValues(touchpoint, kind).Inc()
}

// RecordCacheHit counts a read served from cache.
func RecordCacheHit(touchpoint string) {
	globalManager.cacheHits.WithLabelValues(touchpoint).Inc()
}

// RecordCacheMiss counts a read that recomputed.
func RecordCacheMiss(touchpoint string, forced bool) {
	globalManager.cacheMisses.WithLabelValues(touchpoint, strconv.FormatBool(forced)).Inc()
}

// RecordCacheInvalidation counts a dropped cache entry.
func RecordCacheInvalidation(touchpoint string) {
	globalManager.cacheInvalidations.WithLabelValues(touchpoint).Inc()
}

// UpdateCacheEntries sets the number of cached rankings.
func UpdateCacheEntries(n int) {
	globalManager.cacheEntries.Set(float64(n))
}

// UpdateCatalogProducts sets the size of the catalog snapshot.
func UpdateCatalogProducts(n int) {
	globalManager.catalogProducts.Set(float64(n))
}

// RecordCatalogLoad counts a catalog load attempt.
func RecordCatalogLoad(source, outcome string) {
	globalManager.catalogLoads.WithLabelValues(source, outcome).Inc()
}

// RecordMalformedRecord counts a rejected catalog record.
func RecordMalformedRecord(source string) {
	globalManager.malformedRecords.WithLabelValues(source).Inc()
}

// RecordRefresh counts a scheduled refresh.
func RecordRefresh(touchpoint, outcome string) {
	globalManager.refreshRuns.WithLabelValues(touchpoint, outcome).Inc()
}

// RecordInventoryAlerts adds n alerts of the given kind.
func RecordInventoryAlerts(touchpoint, kind string, n int) {
	globalManager.inventoryAlerts.WithLabelValues(touchpoint, kind).Add(float64(n))
}

// RecordPublish counts a published ranking snapshot.
func RecordPublish(touchpoint, outcome string) {
	globalManager.publishes.WithLabelValues(touchpoint, outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// CounterValue sums the samples of the named counter in the custom registry
// whose labels include every pair in match.
func CounterValue(name string, match map[string]string) (float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return 0, err
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var total float64
	metrics:
		for _, s := range f.GetMetric() {
			labels := make(map[string]string, len(s.GetLabel()))
			for _, l := range s.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			for k, v := range match {
				if labels[k] != v {
					continue metrics
				}
			}
			if c := s.GetCounter(); c != nil {
				total += c.GetValue()
			}
		}
		return total, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
}
