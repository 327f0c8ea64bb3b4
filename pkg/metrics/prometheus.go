// Package metrics provides Prometheus metrics for the deck presentation service.
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

// Manager manages all Prometheus metrics for the deck service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Gate Metrics - who gets through and who bounces
	gateAttempts    *prometheus.CounterVec
	gateRedirects   *prometheus.CounterVec
	sessionsIssued  prometheus.Counter
	sessionsRevoked prometheus.Counter
	sessionsActive  prometheus.Gauge
	gateEnabled     prometheus.Gauge

	// Engagement Metrics
	engagementSlides *prometheus.GaugeVec
	slideViews       *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager from opts on a fresh registry and
// exposes that registry through GetRegistry. It must run before handlers
// that capture the registry are built and before recorders are used
// concurrently.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(reg))...)
	customRegistry = reg
}

func collecting() bool {
	return globalManager.enabled
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "deck",
		subsystem:        "presentation",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name applies the optional metric prefix.
func (m *Manager) name(base string) string {
	return m.metricPrefix + base
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	// Gate Metrics
	m.gateAttempts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("gate_attempts_total"),
			Help:        "Verification attempts by outcome (ok, invalid, not_configured, bad_request)",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)

	m.gateRedirects = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("gate_redirects_total"),
			Help:        "Requests redirected by the gate enforcement layer",
			ConstLabels: constLabels,
		},
		[]string{"reason"},
	)

	m.sessionsIssued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_issued_total"),
		Help:        "Session markers issued after a successful verification",
		ConstLabels: constLabels,
	})

	m.sessionsRevoked = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_revoked_total"),
		Help:        "Session markers revoked by logout or expiry sweeps",
		ConstLabels: constLabels,
	})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_active"),
		Help:        "Session markers currently held by the in-memory store",
		ConstLabels: constLabels,
	})

	m.gateEnabled = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("gate_enabled"),
		Help:        "1 when a shared secret is configured, 0 when the gate is bypassed",
		ConstLabels: constLabels,
	})

	// Engagement Metrics
	m.engagementSlides = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("engagement_slides"),
			Help:        "Number of slides in the loaded engagement by layout kind",
			ConstLabels: constLabels,
		},
		[]string{"layout"},
	)

	m.slideViews = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("slide_views_total"),
			Help:        "Deck page renders by initial slide id",
			ConstLabels: constLabels,
		},
		[]string{"slide"},
	)

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Errors by component and error type",
			ConstLabels: constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_type_total"),
			Help:        "Errors by type and severity",
			ConstLabels: constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Errors by endpoint, method and error type",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("error_latency_milliseconds"),
			Help:        "Latency of operations that ended in an error",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("memory_usage_bytes"),
		Help:        "Heap bytes allocated",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("goroutines"),
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("gc_pause_milliseconds"),
		Help:        "Average GC pause time in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})
}

// Gate Metrics Functions.

// RecordGateAttempt counts a verification attempt by outcome.
func RecordGateAttempt(outcome string) {
	if !collecting() {
		return
	}
	globalManager.gateAttempts.WithLabelValues(outcome).Inc()
}

// RecordGateRedirect counts a redirect issued by the enforcement layer.
func RecordGateRedirect(reason string) {
	if !collecting() {
		return
	}
	globalManager.gateRedirects.WithLabelValues(reason).Inc()
}

// RecordSessionIssued increments the issued session counter.
func RecordSessionIssued() {
	if !collecting() {
		return
	}
	globalManager.sessionsIssued.Inc()
}

// RecordSessionsRevoked adds n revoked sessions.
func RecordSessionsRevoked(n int) {
	if !collecting() {
		return
	}
	globalManager.sessionsRevoked.Add(float64(n))
}

// UpdateSessionsActive sets the number of live session markers.
func UpdateSessionsActive(count int) {
	if !collecting() {
		return
	}
	globalManager.sessionsActive.Set(float64(count))
}

// UpdateGateEnabled records whether the gate is active.
func UpdateGateEnabled(enabled bool) {
	if !collecting() {
		return
	}
	if enabled {
		globalManager.gateEnabled.Set(1)
		return
	}
	globalManager.gateEnabled.Set(0)
}

// Engagement Metrics Functions.

// UpdateEngagementSlides sets the slide count for one layout kind.
func UpdateEngagementSlides(layout string, count int) {
	if !collecting() {
		return
	}
	globalManager.engagementSlides.WithLabelValues(layout).Set(float64(count))
}

// RecordSlideView counts a deck render starting at slideID.
func RecordSlideView(slideID string) {
	if !collecting() {
		return
	}
	globalManager.slideViews.WithLabelValues(slideID).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !collecting() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !collecting() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !collecting() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !collecting() {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !collecting() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !collecting() {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !collecting() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !collecting() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !collecting() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval reports how often callers should refresh gauge metrics.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
