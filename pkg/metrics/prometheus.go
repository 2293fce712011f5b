// Package metrics provides Prometheus metrics for the ecotrace service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Business metrics
	scoresComputed    prometheus.Counter
	productsIngested  prometheus.Counter
	eventsDuplicate   prometheus.Counter
	purchasesRecorded *prometheus.CounterVec
	rewardsGranted    prometheus.Counter
	streakResets      prometheus.Counter
	insightFallbacks  prometheus.Counter
	predictFallbacks  prometheus.Counter

	// Pipeline health
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueErrors      prometheus.Counter
	queueLatency     prometheus.Histogram

	workerCount   prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter
	scoreLatency  prometheus.Histogram

	// Storage
	corpusSize       prometheus.Gauge
	ledgerWrites     prometheus.Counter
	ledgerWriteMs    prometheus.Histogram
	ledgerErrors     prometheus.Counter
	corpusQueryMs    prometheus.Histogram
	trackedUsers     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// System
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	systemGCPause    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ecotrace",
		subsystem:        "footprint",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.scoresComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scores_computed_total",
		Help: "Total carbon footprint scores computed",
	})
	m.productsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "products_ingested_total",
		Help: "Total products scored and added to the corpus",
	})
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "ingest_duplicate_total",
		Help: "Total duplicate ingestion events detected",
	})
	m.purchasesRecorded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "purchases_recorded_total",
		Help: "Total purchase submissions durably recorded, by choice",
	}, []string{"choice"})
	m.rewardsGranted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rewards_granted_total",
		Help: "Total streak rewards granted",
	})
	m.streakResets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "streak_resets_total",
		Help: "Total streaks reset by an ORIGINAL choice",
	})
	m.insightFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "insight_fallbacks_total",
		Help: "Total insight requests served by the local fallback payload",
	})
	m.predictFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "predict_fallbacks_total",
		Help: "Total predictions served by the deterministic fallback",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Current number of queued ingestion events",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Configured ingestion queue capacity",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_utilization",
		Help: "Queue fill ratio in [0,1]",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueue_total",
		Help: "Total events enqueued",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_dequeue_total",
		Help: "Total events dequeued",
	})
	m.queueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueue_errors_total",
		Help: "Total enqueue rejections (closed, full, cancelled)",
	})
	m.queueLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "queue_latency_milliseconds",
		Help:    "Histogram of enqueue latency in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_count",
		Help: "Number of ingestion workers",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_latency_milliseconds",
		Help:    "Histogram of end-to-end event processing latency",
		Buckets: m.histogramBuckets,
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Total worker processing errors",
	})
	m.scoreLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "scoring_latency_milliseconds",
		Help:    "Histogram of score computation latency",
		Buckets: m.histogramBuckets,
	})

	m.corpusSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "corpus_products",
		Help: "Number of products in the corpus store",
	})
	m.ledgerWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "ledger_writes_total",
		Help: "Total purchase records appended to the ledger",
	})
	m.ledgerWriteMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "ledger_write_milliseconds",
		Help:    "Histogram of ledger transaction latency",
		Buckets: m.histogramBuckets,
	})
	m.ledgerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "ledger_errors_total",
		Help: "Total failed ledger transactions",
	})
	m.corpusQueryMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "corpus_query_milliseconds",
		Help:    "Histogram of corpus query latency",
		Buckets: m.histogramBuckets,
	})
	m.trackedUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "tracked_users",
		Help: "Number of users with a cached streak",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Total HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "Histogram of HTTP request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_endpoint_total",
		Help: "Errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})
	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_component_total",
		Help: "Errors by component and error type",
	}, []string{"component", "error_type"})
	m.errorsByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_type_total",
		Help: "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.systemMemory = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_memory_bytes",
		Help: "Current heap allocation in bytes",
	})
	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_goroutines",
		Help: "Current number of goroutines",
	})
	m.systemGCPause = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "system_gc_pause_milliseconds",
		Help:    "Histogram of average GC pause time",
		Buckets: m.histogramBuckets,
	})
}

// Business metric helpers.

func RecordScoreComputed()  { globalManager.scoresComputed.Inc() }
func RecordProductIngested() { globalManager.productsIngested.Inc() }
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

func RecordPurchaseRecorded(choice string) {
	globalManager.purchasesRecorded.WithLabelValues(choice).Inc()
}

func RecordRewardGranted()     { globalManager.rewardsGranted.Inc() }
func RecordStreakReset()       { globalManager.streakResets.Inc() }
func RecordInsightFallback()   { globalManager.insightFallbacks.Inc() }
func RecordPredictorFallback() { globalManager.predictFallbacks.Inc() }

// Queue metric helpers.

func UpdateQueueSize(size int)               { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int)       { globalManager.queueCapacity.Set(float64(capacity)) }
func UpdateQueueUtilization(u float64)       { globalManager.queueUtilization.Set(u) }
func RecordQueueEnqueue()                    { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()                    { globalManager.queueDequeues.Inc() }
func RecordQueueEnqueueError()               { globalManager.queueErrors.Inc() }
func RecordQueueProcessingLatency(ms float64) { globalManager.queueLatency.Observe(ms) }

// Worker metric helpers.

func UpdateWorkerCount(count int)              { globalManager.workerCount.Set(float64(count)) }
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerLatency.Observe(ms) }
func RecordWorkerError()                       { globalManager.workerErrors.Inc() }
func RecordScoringLatency(ms float64)          { globalManager.scoreLatency.Observe(ms) }

// Storage metric helpers.

func UpdateCorpusSize(count int)            { globalManager.corpusSize.Set(float64(count)) }
func RecordLedgerWrite()                    { globalManager.ledgerWrites.Inc() }
func RecordLedgerWriteLatency(ms float64)   { globalManager.ledgerWriteMs.Observe(ms) }
func RecordLedgerError()                    { globalManager.ledgerErrors.Inc() }
func RecordCorpusQueryLatency(ms float64)   { globalManager.corpusQueryMs.Observe(ms) }
func UpdateTrackedUsers(count int)          { globalManager.trackedUsers.Set(float64(count)) }

// HTTP metric helpers.

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// System metric helpers.

func UpdateSystemMemoryUsage(bytes uint64)  { globalManager.systemMemory.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(count int)  { globalManager.systemGoroutines.Set(float64(count)) }
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPause.Observe(pauseMs) }

// GetRegistry exposes the custom registry for the metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
