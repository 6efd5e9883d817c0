package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Window metrics
	WindowsOpen     prometheus.Gauge
	WindowsOpened   prometheus.Counter
	WindowsClosed   prometheus.Counter
	WindowsFocused  prometheus.Counter
	TopZIndex       prometheus.Gauge
	Gestures        *prometheus.CounterVec
	GeometryRecords prometheus.Gauge

	// Session metrics
	SnapshotWrites   *prometheus.CounterVec
	SessionsRestored prometheus.Counter
	RestoredWindows  prometheus.Counter

	// Registry metrics
	RegistryApps prometheus.Gauge
	SeedFailures prometheus.Counter

	// Storage metrics
	StorageOps      *prometheus.CounterVec
	StorageDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	OpenWindows       int64   `json:"open_windows"`
	ActiveConnections int64   `json:"active_connections"`
	SnapshotFailures  int64   `json:"snapshot_failures"`
	TotalDuration     float64 `json:"total_duration"` // sum of all request durations
	RequestCount      int64   `json:"request_count"`  // count for averaging
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector on its own registry. Each call is
// independent, so tests can build as many as they like.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

// NewMetricsWithRegistry creates a metrics collector registering into reg.
// Go runtime and process collectors are added to reg as well.
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdesk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdesk_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdesk_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Window metrics
		WindowsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_windows_open",
				Help: "Number of open window instances",
			},
		),
		WindowsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webdesk_windows_opened_total",
				Help: "Total number of window instances created",
			},
		),
		WindowsClosed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webdesk_windows_closed_total",
				Help: "Total number of window instances closed",
			},
		),
		WindowsFocused: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webdesk_windows_focused_total",
				Help: "Total number of focus changes",
			},
		),
		TopZIndex: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_window_z_index_high_water",
				Help: "Highest stacking order value handed out",
			},
		),
		Gestures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_gestures_total",
				Help: "Completed drag and resize gestures",
			},
			[]string{"kind", "outcome"},
		),
		GeometryRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_geometry_records",
				Help: "Number of remembered per-app geometry records",
			},
		),

		// Session metrics
		SnapshotWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_snapshot_writes_total",
				Help: "Session snapshot writes by outcome",
			},
			[]string{"status"},
		),
		SessionsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webdesk_sessions_restored_total",
				Help: "Total number of session restores performed",
			},
		),
		RestoredWindows: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webdesk_restored_windows_total",
				Help: "Total number of windows scheduled by session restore",
			},
		),

		// Registry metrics
		RegistryApps: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_registry_apps",
				Help: "Number of apps in registry",
			},
		),
		SeedFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webdesk_registry_seed_failures_total",
				Help: "App manifests that failed to load",
			},
		),

		// Storage metrics
		StorageOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_storage_operations_total",
				Help: "Storage operations by backend, operation and status",
			},
			[]string{"backend", "op", "status"},
		),
		StorageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdesk_storage_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"backend", "op"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "webdesk_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the metrics are registered into
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordWindowOpened records a new window instance and the current total
func (m *Metrics) RecordWindowOpened(open int, topZ int64) {
	m.WindowsOpened.Inc()
	m.WindowsOpen.Set(float64(open))
	m.TopZIndex.Set(float64(topZ))

	m.mu.Lock()
	m.snapshot.OpenWindows = int64(open)
	m.mu.Unlock()
}

// RecordWindowClosed records a removed window instance and the current total
func (m *Metrics) RecordWindowClosed(open int) {
	m.WindowsClosed.Inc()
	m.WindowsOpen.Set(float64(open))

	m.mu.Lock()
	m.snapshot.OpenWindows = int64(open)
	m.mu.Unlock()
}

// RecordFocus records a focus change and the new stacking high-water mark
func (m *Metrics) RecordFocus(topZ int64) {
	m.WindowsFocused.Inc()
	m.TopZIndex.Set(float64(topZ))
}

// RecordGesture records the outcome of a drag or resize gesture
func (m *Metrics) RecordGesture(kind, outcome string) {
	m.Gestures.WithLabelValues(kind, outcome).Inc()
}

// SetGeometryRecords sets the number of remembered geometry records
func (m *Metrics) SetGeometryRecords(count int) {
	m.GeometryRecords.Set(float64(count))
}

// RecordSnapshotWrite records a session snapshot write; status is
// "success" or "failure"
func (m *Metrics) RecordSnapshotWrite(status string) {
	m.SnapshotWrites.WithLabelValues(status).Inc()
	if status == "failure" {
		m.mu.Lock()
		m.snapshot.SnapshotFailures++
		m.mu.Unlock()
	}
}

// RecordRestore records a session restore that scheduled count windows
func (m *Metrics) RecordRestore(count int) {
	m.SessionsRestored.Inc()
	m.RestoredWindows.Add(float64(count))
}

// SetRegistryApps sets the number of apps in registry
func (m *Metrics) SetRegistryApps(count int) {
	m.RegistryApps.Set(float64(count))
}

// IncSeedFailures increments the failed manifest counter
func (m *Metrics) IncSeedFailures() {
	m.SeedFailures.Inc()
}

// RecordStorageOp records a storage operation
func (m *Metrics) RecordStorageOp(backend, op, status string, duration time.Duration) {
	m.StorageOps.WithLabelValues(backend, op, status).Inc()
	m.StorageDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current tracked values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
