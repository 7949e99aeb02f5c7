package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Engine metrics
	// ============================================
	EngineCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seaport_engine_calls_total",
			Help: "Total number of engine calls by operation and result code",
		},
		[]string{"operation", "code"},
	)

	EngineCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seaport_engine_call_duration_seconds",
			Help:    "Engine call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	OrdersFulfilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seaport_orders_fulfilled_total",
		Help: "Total number of orders fulfilled (fully or partially)",
	})

	OrdersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seaport_orders_skipped_total",
			Help: "Total number of orders skipped in available-orders calls",
		},
		[]string{"reason"},
	)

	ExecutionsPerCall = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seaport_executions_per_call",
		Help:    "Number of standalone executions per committed call",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})

	BatchExecutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seaport_batch_executions_total",
		Help: "Total number of ERC1155 batch executions",
	})

	// ============================================
	// Event delivery metrics
	// ============================================
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seaport_events_emitted_total",
			Help: "Total number of engine events emitted",
		},
		[]string{"event_type"},
	)

	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seaport_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seaport_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"event_type"},
	)

	NATSMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seaport_nats_messages_failed_total",
			Help: "Total number of NATS messages failed to publish",
		},
		[]string{"event_type"},
	)

	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seaport_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// ============================================
	// Database pool metrics
	// ============================================
	DBConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seaport_db_connection_status",
		Help: "Database connection status (1=healthy, 0=unhealthy)",
	})

	DBConnectionPoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seaport_db_connection_pool_size",
		Help: "Maximum number of open database connections",
	})

	DBConnectionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seaport_db_connection_active",
		Help: "Number of database connections in use",
	})

	DBConnectionIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seaport_db_connection_idle",
		Help: "Number of idle database connections",
	})

	// ============================================
	// HTTP API metrics
	// ============================================
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seaport_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seaport_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
