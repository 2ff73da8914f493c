// Package metrics registers the Prometheus collectors for the realtime core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocket connections currently attached to the hub, set up or anonymous.
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Current number of open websocket connections",
		},
	)

	// Users with at least one open connection.
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_online_users",
			Help: "Current number of user identities with at least one open connection",
		},
	)

	WSEventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_sent_total",
			Help: "Total number of events queued to websocket connections",
		},
		[]string{"type"},
	)

	// Events dropped because the connection's send queue was full.
	WSEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_dropped_total",
			Help: "Total number of events dropped for slow websocket consumers",
		},
		[]string{"type"},
	)

	NotificationsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_written_total",
			Help: "Total number of notification documents created or upserted",
		},
		[]string{"category", "op"}, // op: insert, upsert
	)

	NotificationWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_write_errors_total",
			Help: "Total number of failed notification writes",
		},
		[]string{"category"},
	)
)
