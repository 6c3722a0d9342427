// Package metrics provides Prometheus metrics for the roombus service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoomsActive tracks the number of currently live Room actors.
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roombus_rooms_active",
			Help: "Number of currently live Room actors",
		},
	)

	// RoomsSuspended tracks the total number of Rooms that have suspended
	// after their idle alarm fired.
	RoomsSuspended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roombus_rooms_suspended_total",
			Help: "Total number of Rooms suspended by their idle alarm",
		},
	)

	// ConnectionsByRole tracks currently OPEN connections per role.
	ConnectionsByRole = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roombus_connections_open",
			Help: "Number of currently OPEN connections by role",
		},
		[]string{"role"},
	)

	// MessagesRouted tracks every inbound message successfully dispatched.
	MessagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roombus_messages_routed_total",
			Help: "Total number of inbound messages routed, by envelope type",
		},
		[]string{"type"},
	)

	// PendingRequests is the gauge for in-flight pending requests across all
	// Rooms. No code path in this module sets it, so it reports 0.
	PendingRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roombus_pending_requests",
			Help: "Number of in-flight pending requests across all Rooms",
		},
	)

	// RequestTimeouts tracks pending requests that reached their deadline
	// without a matching reply.
	RequestTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roombus_request_timeouts_total",
			Help: "Total number of pending requests that timed out",
		},
	)

	// FixtureFallbacks tracks synthesized responses served in place of a
	// missing agent.
	FixtureFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roombus_fixture_fallbacks_total",
			Help: "Total number of synthesized fixture responses served",
		},
		[]string{"kind"},
	)

	// LogBucketTrims tracks log bucket append operations that evicted the
	// oldest entry to stay within MAX_LOGS_PER_HOUR.
	LogBucketTrims = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roombus_log_bucket_trims_total",
			Help: "Total number of log bucket appends that evicted the oldest entry",
		},
	)

	// CredentialOperations is the counter for Credential Gateway calls by op
	// and outcome. RecordCredentialOperation is its only writer, and no code
	// path in this module calls it.
	CredentialOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roombus_credential_operations_total",
			Help: "Total number of Credential Gateway operations, by op and outcome",
		},
		[]string{"op", "outcome"},
	)
)

// RecordRoomSuspended decrements the active-room gauge and increments the
// suspended counter — called from Registry.evict.
func RecordRoomSuspended() {
	RoomsActive.Dec()
	RoomsSuspended.Inc()
}

// RecordRoomCreated increments the active-room gauge — called from
// Registry.GetOrCreate on a cache miss.
func RecordRoomCreated() {
	RoomsActive.Inc()
}

// RecordMessageRouted increments the per-type routed counter.
func RecordMessageRouted(messageType string) {
	MessagesRouted.WithLabelValues(messageType).Inc()
}

// RecordFixtureFallback increments the per-kind fixture counter.
func RecordFixtureFallback(kind string) {
	FixtureFallbacks.WithLabelValues(kind).Inc()
}

// RecordCredentialOperation increments the credential operation counter.
func RecordCredentialOperation(op, outcome string) {
	CredentialOperations.WithLabelValues(op, outcome).Inc()
}
