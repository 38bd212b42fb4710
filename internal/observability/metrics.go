package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	WebSocketConnectionsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	WebSocketFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_frames_total",
			Help: "Inbound live channel frames by outcome",
		},
		[]string{"kind"},
	)

	BroadcastDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Per-handle event deliveries by result",
		},
		[]string{"result"},
	)

	BroadcastGroupsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_groups_active",
			Help: "Broadcast groups with at least one local member",
		},
	)

	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Messages persisted, by entry point",
		},
		[]string{"source"},
	)

	OutboxPublishFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_failures_total",
			Help: "Total number of failed outbox publish attempts",
		},
		[]string{"service", "topic"},
	)

	KafkaRecordsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_records_consumed_total",
			Help: "Records consumed from Kafka by result",
		},
		[]string{"topic", "result"},
	)
)
