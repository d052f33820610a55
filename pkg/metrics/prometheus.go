// Package metrics provides Prometheus metrics for the signals service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Analyzer metrics
	analysesTotal      *prometheus.CounterVec
	analysisLatency    *prometheus.HistogramVec
	anomaliesFlagged   *prometheus.CounterVec
	distributionAlerts *prometheus.CounterVec
	riskLevels         *prometheus.CounterVec
	patternsFound      *prometheus.CounterVec

	// History source metrics
	fetchLatency *prometheus.HistogramVec
	fetchErrors  *prometheus.CounterVec

	// Cache metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheErrors prometheus.Counter

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    *prometheus.CounterVec
	batchesDuplicate prometheus.Counter

	// Worker metrics
	workerCount      prometheus.Gauge
	workerJobs       *prometheus.CounterVec
	workerJobLatency prometheus.Histogram

	// Watchlist metrics
	watchlistSize     prometheus.Gauge
	watchlistUpdates  prometheus.Counter
	watchlistQueryLat prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPause     prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "signals",
		subsystem:        "engine",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus collectors.
func (m *Manager) initializeMetrics() {
	m.analysesTotal = m.counterVec("analyses_total", "Analyzer invocations by analyzer and result status", "analyzer", "status")
	m.analysisLatency = m.histogramVec("analysis_latency_milliseconds", "Analyzer computation latency in milliseconds", "analyzer")
	m.anomaliesFlagged = m.counterVec("anomalies_flagged_total", "Scores flagged as anomalous by direction", "direction")
	m.distributionAlerts = m.counterVec("distribution_alerts_total", "Unhealthy cohort distributions by alert type", "alert_type")
	m.riskLevels = m.counterVec("risk_levels_total", "Risk verdicts by level", "risk_level")
	m.patternsFound = m.counterVec("patterns_found_total", "Attendance patterns surfaced by kind", "kind")

	m.fetchLatency = m.histogramVec("history_fetch_latency_milliseconds", "History source fetch latency in milliseconds", "series")
	m.fetchErrors = m.counterVec("history_fetch_errors_total", "History source fetch failures", "series")

	m.cacheHits = m.counter("cache_hits_total", "Assessment cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Assessment cache misses")
	m.cacheErrors = m.counter("cache_errors_total", "Assessment cache failures")

	m.queueSize = m.gauge("queue_size", "Current number of queued assessment jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued assessment jobs")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Assessment jobs accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Assessment jobs handed to workers")
	m.queueRejected = m.counterVec("queue_rejected_total", "Assessment jobs rejected by the queue", "reason")
	m.batchesDuplicate = m.counter("batches_duplicate_total", "Batch submissions ignored as duplicates")

	m.workerCount = m.gauge("worker_count", "Number of running assessment workers")
	m.workerJobs = m.counterVec("worker_jobs_total", "Assessment jobs processed by outcome", "outcome")
	m.workerJobLatency = m.histogram("worker_job_latency_milliseconds", "End-to-end assessment job latency in milliseconds")

	m.watchlistSize = m.gauge("watchlist_size", "Students tracked in the risk watchlist")
	m.watchlistUpdates = m.counter("watchlist_updates_total", "Risk watchlist upserts")
	m.watchlistQueryLat = m.histogram("watchlist_query_latency_milliseconds", "Risk watchlist query latency in milliseconds")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by route, method and status", "route", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "route", "method", "status_code")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated by the process")
	m.systemGoroutines = m.gauge("system_goroutines", "Number of running goroutines")
	m.systemGCPause = m.histogram("system_gc_pause_milliseconds", "Average GC pause time in milliseconds")
}

// RecordAnalysis counts one analyzer invocation and its latency.
func RecordAnalysis(analyzer, status string, latencyMs float64) {
	globalManager.analysesTotal.WithLabelValues(analyzer, status).Inc()
	globalManager.analysisLatency.WithLabelValues(analyzer).Observe(latencyMs)
}

// RecordAnomaly counts a flagged score.
func RecordAnomaly(direction string) {
	globalManager.anomaliesFlagged.WithLabelValues(direction).Inc()
}

// RecordDistributionAlert counts an unhealthy distribution.
func RecordDistributionAlert(alertType string) {
	globalManager.distributionAlerts.WithLabelValues(alertType).Inc()
}

// RecordRiskLevel counts a risk verdict.
func RecordRiskLevel(level string) {
	globalManager.riskLevels.WithLabelValues(level).Inc()
}

// RecordPattern counts a surfaced attendance pattern.
func RecordPattern(kind string) {
	globalManager.patternsFound.WithLabelValues(kind).Inc()
}

// RecordFetch observes a history fetch; failed fetches are also counted.
func RecordFetch(series string, latencyMs float64, failed bool) {
	globalManager.fetchLatency.WithLabelValues(series).Observe(latencyMs)
	if failed {
		globalManager.fetchErrors.WithLabelValues(series).Inc()
	}
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordCacheError increments the cache error counter.
func RecordCacheError() { globalManager.cacheErrors.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueRejected counts a rejected enqueue by reason.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// RecordBatchDuplicate counts an ignored duplicate batch.
func RecordBatchDuplicate() { globalManager.batchesDuplicate.Inc() }

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerJob counts a processed job and observes its latency.
func RecordWorkerJob(outcome string, latencyMs float64) {
	globalManager.workerJobs.WithLabelValues(outcome).Inc()
	globalManager.workerJobLatency.Observe(latencyMs)
}

// UpdateWatchlistSize sets the number of tracked students.
func UpdateWatchlistSize(count int) { globalManager.watchlistSize.Set(float64(count)) }

// RecordWatchlistUpdate increments the watchlist upsert counter.
func RecordWatchlistUpdate() { globalManager.watchlistUpdates.Inc() }

// RecordWatchlistQueryLatency observes a watchlist read.
func RecordWatchlistQueryLatency(latencyMs float64) {
	globalManager.watchlistQueryLat.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(route, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutines.Set(float64(count)) }

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPause.Observe(pauseMs) }

// Configure rebuilds the global manager on a fresh registry with opts
// applied. Call it once at startup, before anything is recorded.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(opts, WithPrometheusRegistry(registry))
	globalManager = NewManager(opts...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
