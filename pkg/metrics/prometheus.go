// Package metrics provides Prometheus metrics for the huddle service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Domain
	eventsCreated     prometheus.Counter
	eventsTotal       prometheus.Gauge
	eventsExpired     prometheus.Counter
	submissions       prometheus.Counter
	slotsSubmitted    prometheus.Counter
	recomputations    prometheus.Counter
	recomputeLatency  prometheus.Histogram
	recomputeErrors   prometheus.Counter
	candidateBlocks   prometheus.Histogram
	noticesCoalesced  prometheus.Counter
	storeLatency      *prometheus.HistogramVec
	streamSubscribers prometheus.Gauge
	streamBroadcasts  *prometheus.CounterVec
	streamDropped     prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "huddle",
		subsystem:        "availability",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.eventsCreated = auto.NewCounter(m.counter("events_created_total", "Total number of scheduling events created"))
	m.eventsTotal = auto.NewGauge(m.gauge("events", "Number of events currently stored"))
	m.eventsExpired = auto.NewCounter(m.counter("events_expired_total", "Total number of events removed by the expiry sweeper"))
	m.submissions = auto.NewCounter(m.counter("submissions_total", "Total number of availability submissions accepted"))
	m.slotsSubmitted = auto.NewCounter(m.counter("slots_submitted_total", "Total number of slot selections accepted"))
	m.recomputations = auto.NewCounter(m.counter("recomputations_total", "Total number of best-time recomputations"))
	m.recomputeLatency = auto.NewHistogram(m.histogram("recompute_latency_milliseconds", "Best-time recomputation latency in milliseconds", nil))
	m.recomputeErrors = auto.NewCounter(m.counter("recompute_errors_total", "Total number of failed recomputations"))
	m.candidateBlocks = auto.NewHistogram(m.histogram("candidate_blocks", "Ranked blocks returned per recomputation",
		[]float64{0, 1, 2, 5, 10, 20, 50, 100}))
	m.noticesCoalesced = auto.NewCounter(m.counter("notices_coalesced_total", "Change notices absorbed by a pending recompute"))
	m.storeLatency = auto.NewHistogramVec(m.histogram("store_latency_milliseconds", "Store operation latency in milliseconds", nil),
		[]string{"operation"})
	m.streamSubscribers = auto.NewGauge(m.gauge("stream_subscribers", "Open change-stream subscriptions"))
	m.streamBroadcasts = auto.NewCounterVec(m.counter("stream_broadcasts_total", "Messages broadcast to change streams by kind"),
		[]string{"kind"})
	m.streamDropped = auto.NewCounter(m.counter("stream_dropped_total", "Messages dropped for slow stream subscribers"))

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Current size of the change-notice queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counter("queue_enqueue_total", "Total number of notices enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counter("queue_dequeue_total", "Total number of notices dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues"))

	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Configured recompute workers"))
	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active_count", "Number of running recompute workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", nil))
	m.workerErrorRate = auto.NewCounter(m.counter("worker_errors_total", "Total number of worker errors"))

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counter("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counter("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordEventCreated increments the events created counter.
func RecordEventCreated() {
	globalManager.eventsCreated.Inc()
}

// UpdateEventsTotal sets the number of stored events.
func UpdateEventsTotal(count int) {
	globalManager.eventsTotal.Set(float64(count))
}

// RecordEventsExpired adds n to the expired events counter.
func RecordEventsExpired(n int) {
	globalManager.eventsExpired.Add(float64(n))
}

// RecordSubmission records one accepted availability submission.
func RecordSubmission(slotCount int) {
	globalManager.submissions.Inc()
	globalManager.slotsSubmitted.Add(float64(slotCount))
}

// RecordRecompute records a successful recomputation.
func RecordRecompute(latencyMs float64, blocks int) {
	globalManager.recomputations.Inc()
	globalManager.recomputeLatency.Observe(latencyMs)
	globalManager.candidateBlocks.Observe(float64(blocks))
}

// RecordRecomputeError increments the recompute error counter.
func RecordRecomputeError() {
	globalManager.recomputeErrors.Inc()
}

// RecordNoticeCoalesced increments the coalesced notices counter.
func RecordNoticeCoalesced() {
	globalManager.noticesCoalesced.Inc()
}

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateStreamSubscribers sets the number of open stream subscriptions.
func UpdateStreamSubscribers(count int) {
	globalManager.streamSubscribers.Set(float64(count))
}

// RecordStreamBroadcast counts a broadcast of the given kind.
func RecordStreamBroadcast(kind string) {
	globalManager.streamBroadcasts.WithLabelValues(kind).Inc()
}

// RecordStreamDropped counts a message dropped for a slow subscriber.
func RecordStreamDropped() {
	globalManager.streamDropped.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory in use.
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
