package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig configures the Prometheus-backed sink.
type MetricsConfig struct {
	// Service identification
	ServiceName    string
	ServiceVersion string

	// Namespace is the Prometheus namespace (default: mcp).
	Namespace string

	// HistogramBuckets are custom latency buckets in milliseconds.
	HistogramBuckets []float64

	// Registry receives the collectors. Defaults to a private registry so
	// multiple servers in one process never collide.
	Registry *prometheus.Registry
}

// PrometheusSink implements Sink backed by Prometheus collectors.
type PrometheusSink struct {
	registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	notificationTotal *prometheus.CounterVec
	roundTripTotal    *prometheus.CounterVec
	eventTotal        *prometheus.CounterVec
	activeSessions    prometheus.Gauge
}

// NewPrometheusSink creates a Prometheus-backed telemetry sink.
func NewPrometheusSink(config MetricsConfig) (*PrometheusSink, error) {
	if config.Namespace == "" {
		config.Namespace = "mcp"
	}
	if config.HistogramBuckets == nil {
		// Default buckets for milliseconds.
		config.HistogramBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	constLabels := prometheus.Labels{}
	if config.ServiceName != "" {
		constLabels["service"] = config.ServiceName
	}
	if config.ServiceVersion != "" {
		constLabels["version"] = config.ServiceVersion
	}

	s := &PrometheusSink{
		registry: config.Registry,
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   config.Namespace,
				Name:        "request_duration_milliseconds",
				Help:        "Duration of dispatched MCP requests in milliseconds",
				Buckets:     config.HistogramBuckets,
				ConstLabels: constLabels,
			},
			[]string{"method", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "request_total",
				Help:        "Total number of dispatched MCP requests",
				ConstLabels: constLabels,
			},
			[]string{"method", "status"},
		),
		notificationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "notification_total",
				Help:        "Total number of outbound MCP notifications",
				ConstLabels: constLabels,
			},
			[]string{"method"},
		),
		roundTripTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "round_trip_total",
				Help:        "Total number of server-initiated client round-trips",
				ConstLabels: constLabels,
			},
			[]string{"method", "status"},
		),
		eventTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "event_total",
				Help:        "Total number of telemetry events by kind",
				ConstLabels: constLabels,
			},
			[]string{"kind"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   config.Namespace,
				Name:        "active_sessions",
				Help:        "Number of currently registered sessions",
				ConstLabels: constLabels,
			},
		),
	}

	collectors := []prometheus.Collector{
		s.requestDuration, s.requestTotal, s.notificationTotal,
		s.roundTripTotal, s.eventTotal, s.activeSessions,
	}
	for _, c := range collectors {
		if err := config.Registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return s, nil
}

// Registry returns the registry holding the sink's collectors, for exposition
// via promhttp.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// Emit records an event by kind and adjusts the session gauge for session
// lifecycle events.
func (s *PrometheusSink) Emit(_ context.Context, kind string, attrs map[string]interface{}) {
	s.eventTotal.WithLabelValues(kind).Inc()

	switch kind {
	case EventSessionOpen:
		s.activeSessions.Inc()
	case EventSessionClose:
		s.activeSessions.Dec()
	case EventNotification:
		if method, ok := attrs["method"].(string); ok {
			s.notificationTotal.WithLabelValues(method).Inc()
		}
	case EventRoundTrip:
		method, _ := attrs["method"].(string)
		status, _ := attrs["status"].(string)
		if method != "" {
			s.roundTripTotal.WithLabelValues(method, status).Inc()
		}
	}
}

// RecordRequest records a completed protocol request dispatch.
func (s *PrometheusSink) RecordRequest(_ context.Context, method, status string, duration time.Duration) {
	ms := float64(duration.Milliseconds())
	s.requestDuration.WithLabelValues(method, status).Observe(ms)
	s.requestTotal.WithLabelValues(method, status).Inc()
}
