// Package metrics provides Prometheus metrics for the draftboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Board pipeline
	boardBuilds       *prometheus.CounterVec
	boardBuildLatency prometheus.Histogram
	boardPlayers      *prometheus.GaugeVec
	boardStaleDrops   prometheus.Counter
	adpJoinMisses     prometheus.Counter
	adpJoinHits       *prometheus.CounterVec

	// Draft sessions
	draftSessions    prometheus.Gauge
	draftMutations   *prometheus.CounterVec
	draftDuplicates  prometheus.Counter
	draftStaleDrops  prometheus.Counter
	draftSyncs       *prometheus.CounterVec
	draftedPlayers   *prometheus.GaugeVec
	persistSaved     prometheus.Counter
	persistErrors    prometheus.Counter
	persistLatency   prometheus.Histogram
	externalPolls    *prometheus.CounterVec
	externalPollPick prometheus.Gauge

	// Upstream
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	breakerState     *prometheus.GaugeVec
	cacheLookups     *prometheus.CounterVec

	// Live sync
	liveConnections prometheus.Gauge
	liveRooms       prometheus.Gauge
	liveEvents      *prometheus.CounterVec
	liveReconnects  prometheus.Counter

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    *prometheus.CounterVec
	queueUtilization prometheus.Gauge

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // service metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fantasy",
		subsystem:        "draftboard",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.boardBuilds = m.counterVec("board_builds_total", "Board builds by outcome", "outcome")
	m.boardBuildLatency = m.histogram("board_build_latency_milliseconds", "Normalize, join and rank latency in milliseconds", m.histogramBuckets)
	m.boardPlayers = m.gaugeVec("board_players", "Players on the most recent board per query", "season", "position")
	m.boardStaleDrops = m.counter("board_stale_responses_total", "Board builds discarded because a newer generation was stored")
	m.adpJoinMisses = m.counter("adp_join_misses_total", "Players with no ADP entry after id and name|position joins")
	m.adpJoinHits = m.counterVec("adp_join_hits_total", "ADP joins by strategy", "strategy")

	m.draftSessions = m.gauge("draft_sessions", "Draft sessions held in memory")
	m.draftMutations = m.counterVec("draft_mutations_total", "Drafted list mutations by origin and kind", "origin", "kind")
	m.draftDuplicates = m.counter("draft_duplicates_total", "Draft inserts ignored because the id was already drafted")
	m.draftStaleDrops = m.counter("draft_stale_fetches_total", "Pick fetches discarded because a newer load won")
	m.draftSyncs = m.counterVec("draft_syncs_total", "Pick list loads by outcome", "outcome")
	m.draftedPlayers = m.gaugeVec("drafted_players", "Drafted players per draft", "draft_id")
	m.persistSaved = m.counter("picks_persisted_total", "Pick lists saved to the store")
	m.persistErrors = m.counter("picks_persist_errors_total", "Pick list saves that failed")
	m.persistLatency = m.histogram("picks_persist_latency_milliseconds", "Pick list save latency in milliseconds", m.histogramBuckets)
	m.externalPolls = m.counterVec("external_sync_polls_total", "External platform draft polls by outcome", "outcome")
	m.externalPollPick = m.gauge("external_sync_last_pick", "Highest pick number seen by the external platform sync")

	m.upstreamRequests = m.counterVec("upstream_requests_total", "Upstream API requests", "endpoint", "status")
	m.upstreamLatency = m.histogramVec("upstream_latency_milliseconds", "Upstream API latency in milliseconds", "endpoint")
	m.breakerState = m.gaugeVec("circuit_breaker_state", "Circuit breaker state (0 closed, 1 half-open, 2 open)", "name")
	m.cacheLookups = m.counterVec("cache_lookups_total", "Cache lookups by backend and result", "backend", "result")

	m.liveConnections = m.gauge("live_connections", "Open live-sync websocket connections")
	m.liveRooms = m.gauge("live_rooms", "Draft rooms with at least one member")
	m.liveEvents = m.counterVec("live_events_total", "Live-sync events by type and direction", "type", "direction")
	m.liveReconnects = m.counter("live_reconnects_total", "Live-sync client reconnect attempts")

	m.queueSize = m.gauge("queue_size", "Persist jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum persist queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Persist jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Persist jobs dequeued")
	m.queueRejected = m.counterVec("queue_rejected_total", "Persist jobs rejected by reason", "reason")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (size / capacity)")

	m.workerActiveCount = m.gauge("worker_active_count", "Running persist workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Persist job processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Persist jobs that ended in error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Board pipeline.

// RecordBoardBuild counts a board build with its outcome (ok, error, stale).
func RecordBoardBuild(outcome string) { globalManager.boardBuilds.WithLabelValues(outcome).Inc() }

// RecordBoardBuildLatency records normalize+join+rank latency.
func RecordBoardBuildLatency(latencyMs float64) { globalManager.boardBuildLatency.Observe(latencyMs) }

// UpdateBoardPlayers sets the player count of the latest board for a query.
func UpdateBoardPlayers(season, position string, count int) {
	globalManager.boardPlayers.WithLabelValues(season, position).Set(float64(count))
}

// RecordBoardStaleDrop counts a discarded out-of-order board build.
func RecordBoardStaleDrop() { globalManager.boardStaleDrops.Inc() }

// RecordADPJoinMiss counts a player that matched no ADP entry.
func RecordADPJoinMiss() { globalManager.adpJoinMisses.Inc() }

// RecordADPJoinHit counts a successful ADP join by strategy (id, name_position).
func RecordADPJoinHit(strategy string) { globalManager.adpJoinHits.WithLabelValues(strategy).Inc() }

// Draft sessions.

// UpdateDraftSessions sets the number of live sessions.
func UpdateDraftSessions(count int) { globalManager.draftSessions.Set(float64(count)) }

// RecordDraftMutation counts a drafted-list change (origin local|remote|sync, kind add|remove|replace).
func RecordDraftMutation(origin, kind string) {
	globalManager.draftMutations.WithLabelValues(origin, kind).Inc()
}

// RecordDraftDuplicate counts an insert skipped by id de-duplication.
func RecordDraftDuplicate() { globalManager.draftDuplicates.Inc() }

// RecordDraftStaleFetch counts a superseded pick fetch.
func RecordDraftStaleFetch() { globalManager.draftStaleDrops.Inc() }

// RecordDraftSync counts a pick list load by outcome.
func RecordDraftSync(outcome string) { globalManager.draftSyncs.WithLabelValues(outcome).Inc() }

// UpdateDraftedPlayers sets the drafted count for one draft.
func UpdateDraftedPlayers(draftID string, count int) {
	globalManager.draftedPlayers.WithLabelValues(draftID).Set(float64(count))
}

// DeleteDraftedPlayers drops the drafted count series of a draft that is no longer tracked.
func DeleteDraftedPlayers(draftID string) {
	globalManager.draftedPlayers.DeleteLabelValues(draftID)
}

// RecordPicksPersisted counts a successful pick list save.
func RecordPicksPersisted() { globalManager.persistSaved.Inc() }

// RecordPicksPersistError counts a failed pick list save.
func RecordPicksPersistError() { globalManager.persistErrors.Inc() }

// RecordPicksPersistLatency records save latency.
func RecordPicksPersistLatency(latencyMs float64) { globalManager.persistLatency.Observe(latencyMs) }

// RecordExternalPoll counts an external platform poll by outcome.
func RecordExternalPoll(outcome string) { globalManager.externalPolls.WithLabelValues(outcome).Inc() }

// UpdateExternalLastPick sets the highest external pick number observed.
func UpdateExternalLastPick(pickNo int) { globalManager.externalPollPick.Set(float64(pickNo)) }

// Upstream.

// RecordUpstreamRequest counts an upstream call and observes its latency.
func RecordUpstreamRequest(endpoint, status string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, status).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// UpdateBreakerState sets the numeric state of a named circuit breaker.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCacheLookup counts a cache lookup (result hit|miss|error).
func RecordCacheLookup(backend, result string) {
	globalManager.cacheLookups.WithLabelValues(backend, result).Inc()
}

// Live sync.

// UpdateLiveConnections sets the number of open relay connections.
func UpdateLiveConnections(count int) { globalManager.liveConnections.Set(float64(count)) }

// UpdateLiveRooms sets the number of non-empty rooms.
func UpdateLiveRooms(count int) { globalManager.liveRooms.Set(float64(count)) }

// RecordLiveEvent counts a live event by type and direction (in|out).
func RecordLiveEvent(eventType, direction string) {
	globalManager.liveEvents.WithLabelValues(eventType, direction).Inc()
}

// RecordLiveReconnect counts a client reconnect attempt.
func RecordLiveReconnect() { globalManager.liveReconnects.Inc() }

// Queue.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueSize sets the current queue length and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a job handed to a worker.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueRejected counts a rejected job (closed, full, cancelled).
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// Workers.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records job processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
