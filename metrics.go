package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality (no per-player or per-room labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	broadcastDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_broadcast_duration_seconds",
		Help:    "Time spent serializing and fanning out a state snapshot",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	roomCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_room_count",
		Help: "Current number of rooms",
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_player_count",
		Help: "Current number of players across all rooms",
	})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages received",
	})

	// reason is bounded: "conn_limit", "ip_limit", "origin", "rate_limit"
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by limits or origin check",
	}, []string{"reason"})
)

// RecordTick records simulation tick timing
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// RecordBroadcast records snapshot broadcast timing
func RecordBroadcast(d time.Duration) {
	broadcastDuration.Observe(d.Seconds())
}

// SetRoomCount updates the room gauge
func SetRoomCount(n int) {
	roomCount.Set(float64(n))
}

// SetPlayerCount updates the player gauge
func SetPlayerCount(n int) {
	playerCount.Set(float64(n))
}

// IncWSConnections tracks a new WebSocket connection
func IncWSConnections() {
	wsConnectionsActive.Inc()
}

// DecWSConnections tracks a closed WebSocket connection
func DecWSConnections() {
	wsConnectionsActive.Dec()
}

// IncWSMessages counts one inbound WebSocket message
func IncWSMessages() {
	wsMessagesTotal.Inc()
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "conn_limit", "ip_limit", "origin", "rate_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}
