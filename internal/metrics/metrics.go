package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhive_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamhive_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamhive_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhive_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamhive_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamhive_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Ingestion pipeline metrics
var (
	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhive_ingest_runs_total",
			Help: "Total number of video ingestion runs by terminal state",
		},
		[]string{"outcome"}, // "finalized", "transcode_failed", "publish_failed"
	)

	IngestStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamhive_ingest_stage_duration_seconds",
			Help:    "Duration of each ingestion pipeline stage in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"stage"}, // "transcode", "publish"
	)

	IngestInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamhive_ingest_in_flight",
			Help: "Number of ingestion runs currently in progress",
		},
	)

	TranscodeProcessKills = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhive_transcode_process_kills_total",
			Help: "Total number of transcoder processes killed due to timeout or cancellation",
		},
	)
)

// Storage backend metrics
var (
	StorageOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhive_storage_operations_total",
			Help: "Total number of storage backend operations",
		},
		[]string{"backend", "operation", "status"},
	)

	StorageUploadBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhive_storage_upload_bytes_total",
			Help: "Total bytes uploaded to the storage backend",
		},
		[]string{"backend"},
	)
)

// Auth metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhive_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"}, // "success" or "failure"
	)
)
