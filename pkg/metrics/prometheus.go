// Package metrics provides Prometheus metrics for the prospector pipeline service.
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

	// Job lifecycle.
	jobsCreated   *prometheus.CounterVec
	jobsCompleted *prometheus.CounterVec
	jobsFailed    *prometheus.CounterVec
	jobsRunning   prometheus.Gauge

	// Pipeline stages.
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec

	// Scoring.
	entitiesScored prometheus.Counter
	scoringLatency prometheus.Histogram

	// Batch processing.
	batchItemsProcessed prometheus.Counter
	batchItemsDegraded  prometheus.Counter

	// Signal ingestion.
	signalsFetched  *prometheus.CounterVec
	signalsRetained prometheus.Gauge

	// Persistence.
	runsPersisted       prometheus.Counter
	candidatesPersisted prometheus.Gauge

	// HTTP surface.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process health.
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPause     prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry keeps default Go runtime collectors out of scrapes.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "prospector",
		subsystem:        "pipeline",
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

	m.jobsCreated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_created_total",
		Help:      "Total jobs created, labeled by stage type",
	}, []string{"stage"})

	m.jobsCompleted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_completed_total",
		Help:      "Total jobs that reached the completed state",
	}, []string{"stage"})

	m.jobsFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_failed_total",
		Help:      "Total jobs that reached the failed state",
	}, []string{"stage"})

	m.jobsRunning = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_running",
		Help:      "Number of jobs currently in the running state",
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_milliseconds",
		Help:      "Histogram of per-stage wall time in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.stageFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_failures_total",
		Help:      "Total stage executions that ended in an error",
	}, []string{"stage"})

	m.entitiesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entities_scored_total",
		Help:      "Total signals and candidates scored",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.batchItemsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_items_processed_total",
		Help:      "Total items handed to the batch processor",
	})

	m.batchItemsDegraded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_items_degraded_total",
		Help:      "Total batch items that failed and kept their original value",
	})

	m.signalsFetched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signals_fetched_total",
		Help:      "Total raw signals fetched, labeled by source",
	}, []string{"source"})

	m.signalsRetained = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signals_retained",
		Help:      "Signals retained after scoring and filtering in the last scan",
	})

	m.runsPersisted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_persisted_total",
		Help:      "Total pipeline runs written to the persistence store",
	})

	m.candidatesPersisted = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_persisted",
		Help:      "Ranked candidates written in the last persisted run",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPause = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_milliseconds",
		Help:      "Histogram of average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordJobCreated increments the created counter for a stage type.
func RecordJobCreated(stage string) {
	globalManager.jobsCreated.WithLabelValues(stage).Inc()
}

// RecordJobCompleted increments the completed counter for a stage type.
func RecordJobCompleted(stage string) {
	globalManager.jobsCompleted.WithLabelValues(stage).Inc()
}

// RecordJobFailed increments the failed counter for a stage type.
func RecordJobFailed(stage string) {
	globalManager.jobsFailed.WithLabelValues(stage).Inc()
}

// UpdateJobsRunning sets the number of jobs currently running.
func UpdateJobsRunning(n int) {
	globalManager.jobsRunning.Set(float64(n))
}

// RecordStageDuration records wall time for one stage execution.
func RecordStageDuration(stage string, ms float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(ms)
}

// RecordStageFailure increments the failure counter for a stage.
func RecordStageFailure(stage string) {
	globalManager.stageFailures.WithLabelValues(stage).Inc()
}

// RecordEntityScored increments the scored-entities counter.
func RecordEntityScored() {
	globalManager.entitiesScored.Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(ms float64) {
	globalManager.scoringLatency.Observe(ms)
}

// RecordBatchItemProcessed increments the batch item counter.
func RecordBatchItemProcessed() {
	globalManager.batchItemsProcessed.Inc()
}

// RecordBatchItemDegraded increments the degraded batch item counter.
func RecordBatchItemDegraded() {
	globalManager.batchItemsDegraded.Inc()
}

// RecordSignalsFetched adds to the per-source fetch counter.
func RecordSignalsFetched(source string, n int) {
	globalManager.signalsFetched.WithLabelValues(source).Add(float64(n))
}

// UpdateSignalsRetained sets the retained-signal gauge for the last scan.
func UpdateSignalsRetained(n int) {
	globalManager.signalsRetained.Set(float64(n))
}

// RecordRunPersisted increments the persisted run counter.
func RecordRunPersisted() {
	globalManager.runsPersisted.Inc()
}

// UpdateCandidatesPersisted sets the candidate count of the last persisted run.
func UpdateCandidatesPersisted(n int) {
	globalManager.candidatesPersisted.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// UpdateSystemMemoryUsage sets the current heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutines.Set(float64(n))
}

// RecordSystemGCPauseTime observes an average GC pause in milliseconds.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPause.Observe(ms)
}
