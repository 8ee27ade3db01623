package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests per endpoint and status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks request latency per endpoint.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ReadingsReceived counts accepted sensor readings.
	ReadingsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_received_total",
			Help: "Total number of sensor readings received",
		},
	)

	// DangerReadings counts readings classified as dangerous.
	DangerReadings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "danger_readings_total",
			Help: "Total number of readings classified DANGER",
		},
	)

	// AlertsSent counts outbound push alerts by delivery outcome.
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_sent_total",
			Help: "Total number of outbound push alerts",
		},
		[]string{"status"},
	)

	// HistoryAppends counts history entries written past the save throttle.
	HistoryAppends = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_appends_total",
			Help: "Total number of history entries appended",
		},
	)

	// HistoryTrimmed counts history entries evicted by retention trimming.
	HistoryTrimmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_entries_trimmed_total",
			Help: "Total number of history entries evicted by the retention cap",
		},
	)

	// RedisOperations counts store operations by outcome.
	RedisOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)
)
