// Package monitoring exposes Prometheus metrics for the HTTP surface, the
// message router, the detectors, and the extension bridge.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Router metrics
	MessagesTotal   *prometheus.CounterVec
	MessageDuration *prometheus.HistogramVec

	// Detector metrics
	StaleScans   prometheus.Counter
	StaleTabs    prometheus.Gauge
	TrackedTabs  prometheus.Gauge
	SyncQueueLen prometheus.Gauge

	// Bridge metrics
	BridgeConnections prometheus.Gauge
	BridgeEvents      *prometheus.CounterVec
}

// New creates a metrics collector registered on reg. Passing a fresh
// registry keeps tests independent.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabwarden_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tabwarden_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabwarden_messages_total",
				Help: "Routed messages by request type and outcome",
			},
			[]string{"type", "status"},
		),
		MessageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tabwarden_message_duration_seconds",
				Help:    "Message handling duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		StaleScans: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabwarden_stale_scans_total",
				Help: "Completed stale detector runs",
			},
		),
		StaleTabs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabwarden_stale_tabs",
				Help: "Stale tabs found by the most recent scan",
			},
		),
		TrackedTabs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabwarden_tracked_tabs",
				Help: "Tabs with a live activity record",
			},
		),
		SyncQueueLen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabwarden_sync_queue_length",
				Help: "Mutations queued for the external sync agent",
			},
		),
		BridgeConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabwarden_bridge_connections",
				Help: "Connected browser extensions",
			},
		),
		BridgeEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabwarden_bridge_events_total",
				Help: "Tab events received from the browser",
			},
			[]string{"type"},
		),
	}
}

// NewDefault registers on the default Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// RecordMessage records one routed message.
func (m *Metrics) RecordMessage(msgType string, success bool, duration time.Duration) {
	status := "ok"
	if !success {
		status = "error"
	}
	m.MessagesTotal.WithLabelValues(msgType, status).Inc()
	m.MessageDuration.WithLabelValues(msgType).Observe(duration.Seconds())
}

// RecordHTTPRequest records one HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
