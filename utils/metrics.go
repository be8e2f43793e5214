package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Database Metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Relay Metrics
	RelayConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connections_total",
			Help: "Current number of live relay connections",
		},
	)

	RelaySessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_sessions_active",
			Help: "Current number of sessions with at least one connection",
		},
	)

	LocationsRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_locations_relayed_total",
			Help: "Total number of location updates fanned out to observers",
		},
	)

	LocationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_locations_dropped_total",
			Help: "Total number of location updates dropped",
		},
		[]string{"reason"}, // invalid, backpressure, expired, no_session
	)

	// Extension Workflow Metrics
	ExtensionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extension_requests_total",
			Help: "Total number of extension request operations",
		},
		[]string{"operation"}, // create, approve, reject
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"component", "type"},
	)
)

// TrackDBOperation tracks database operation duration
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

// TrackError increments the error counter by component and type
func TrackError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// TrackExtensionOperation increments the extension workflow counter
func TrackExtensionOperation(operation string) {
	ExtensionRequestsTotal.WithLabelValues(operation).Inc()
}

// TrackDroppedLocation counts an update that never reached an observer
func TrackDroppedLocation(reason string) {
	LocationsDropped.WithLabelValues(reason).Inc()
}
