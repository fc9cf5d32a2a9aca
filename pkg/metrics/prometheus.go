// Package metrics provides Prometheus metrics for the cfcoach service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Circuit breaker state gauge values.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// Manager manages all Prometheus metrics for the cfcoach service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Job runs
	runsTotal       *prometheus.CounterVec
	runsFailed      *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastRunUnix     prometheus.Gauge
	lastSuccessUnix prometheus.Gauge

	// Analysis results
	submissionsAnalyzed prometheus.Gauge
	weakTopics          prometheus.Gauge
	recommendations     prometheus.Gauge
	currentRating       prometheus.Gauge
	topicAccuracy       *prometheus.GaugeVec

	// Upstream (Codeforces API)
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	breakerState     *prometheus.GaugeVec

	// Delivery and persistence
	notifications *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec

	// Job queue
	queueSize       prometheus.Gauge
	queueRejections *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cfcoach",
		subsystem:        "coach",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("runs_total"),
		Help: "Total number of analysis runs by trigger source",
	}, []string{"source"})

	m.runsFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("runs_failed_total"),
		Help: "Total number of analysis runs aborted by an upstream failure",
	}, []string{"stage"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("run_duration_seconds"),
		Help:    "Wall time of a full analysis run",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("last_run_timestamp_seconds"),
		Help: "Unix time of the last run attempt",
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("last_success_timestamp_seconds"),
		Help: "Unix time of the last successful run",
	})

	m.submissionsAnalyzed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("submissions_analyzed"),
		Help: "Number of submissions analyzed in the last run",
	})

	m.weakTopics = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("topics_tracked"),
		Help: "Number of distinct topics seen in the last run",
	})

	m.recommendations = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("recommendations"),
		Help: "Number of problems recommended in the last run",
	})

	m.currentRating = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("current_rating"),
		Help: "Rating of the tracked handle at the last run",
	})

	m.topicAccuracy = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("weak_topic_accuracy_percent"),
		Help: "Accuracy of the weakest topics at the last run",
	}, []string{"topic"})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("upstream_requests_total"),
		Help: "Codeforces API calls by method and outcome",
	}, []string{"method", "outcome"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("upstream_latency_milliseconds"),
		Help:    "Codeforces API call latency in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}, []string{"method"})

	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("circuit_breaker_state"),
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("notifications_total"),
		Help: "Notifications by channel and outcome",
	}, []string{"channel", "outcome"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("store_errors_total"),
		Help: "Progress store failures by backend",
	}, []string{"backend"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("job_queue_size"),
		Help: "Pending run triggers",
	})

	m.queueRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("job_queue_rejections_total"),
		Help: "Run triggers dropped because a run was already pending",
	}, []string{"reason"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("http_requests_total"),
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("errors_by_component_total"),
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_memory_usage_bytes"),
		Help: "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_goroutine_count"),
		Help: "Number of goroutines",
	})
}

// Run metrics.

// RecordRunStarted counts a run for the given trigger source.
func RecordRunStarted(source string) {
	globalManager.runsTotal.WithLabelValues(source).Inc()
	globalManager.lastRunUnix.SetToCurrentTime()
}

// RecordRunFailed counts a run aborted at stage.
func RecordRunFailed(stage string) {
	globalManager.runsFailed.WithLabelValues(stage).Inc()
}

// RecordRunSucceeded records the duration of a completed run.
func RecordRunSucceeded(d time.Duration) {
	globalManager.runDuration.Observe(d.Seconds())
	globalManager.lastSuccessUnix.SetToCurrentTime()
}

// Analysis metrics.

// UpdateSubmissionsAnalyzed sets the submissions count of the last run.
func UpdateSubmissionsAnalyzed(n int) {
	globalManager.submissionsAnalyzed.Set(float64(n))
}

// UpdateTopicsTracked sets the distinct topic count of the last run.
func UpdateTopicsTracked(n int) {
	globalManager.weakTopics.Set(float64(n))
}

// UpdateRecommendations sets the recommendation count of the last run.
func UpdateRecommendations(n int) {
	globalManager.recommendations.Set(float64(n))
}

// UpdateCurrentRating sets the rating observed in the last run.
func UpdateCurrentRating(r int) {
	globalManager.currentRating.Set(float64(r))
}

// UpdateWeakTopicAccuracy replaces the per-topic accuracy series.
func UpdateWeakTopicAccuracy(acc map[string]float64) {
	globalManager.topicAccuracy.Reset()
	for topic, a := range acc {
		globalManager.topicAccuracy.WithLabelValues(topic).Set(a)
	}
}

// Upstream metrics.

// RecordUpstreamRequest counts a Codeforces API call and its latency.
func RecordUpstreamRequest(method, outcome string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(method, outcome).Inc()
	globalManager.upstreamLatency.WithLabelValues(method).Observe(latencyMs)
}

// UpdateBreakerState sets the state gauge for a named circuit breaker.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// Delivery metrics.

// RecordNotification counts a notification attempt.
func RecordNotification(channel, outcome string) {
	globalManager.notifications.WithLabelValues(channel, outcome).Inc()
}

// RecordStoreError counts a progress store failure.
func RecordStoreError(backend string) {
	globalManager.storeErrors.WithLabelValues(backend).Inc()
}

// Queue metrics.

// UpdateQueueSize sets the number of pending run triggers.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueRejection counts a dropped run trigger.
func RecordQueueRejection(reason string) {
	globalManager.queueRejections.WithLabelValues(reason).Inc()
}

// HTTP metrics.

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

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
