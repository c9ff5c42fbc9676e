package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_transcoder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_transcoder_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_auth_failures_total",
			Help: "Total number of requests rejected for a missing or invalid API key",
		},
		[]string{"reason"},
	)
)

// Job metrics
var (
	JobsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_jobs_created_total",
			Help: "Total number of jobs accepted",
		},
		[]string{"type"},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_jobs_completed_total",
			Help: "Total number of jobs that reached a terminal state",
		},
		[]string{"type", "status"},
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_transcoder_jobs_active",
			Help: "Number of jobs currently supervised",
		},
	)

	JobsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_transcoder_jobs",
			Help: "Number of job records in the store by status",
		},
		[]string{"status"},
	)

	JobPersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_job_persist_errors_total",
			Help: "Total number of failed job record writes",
		},
		[]string{"backend", "operation"},
	)
)

// Encoder metrics
var (
	EncoderRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_transcoder_encoder_run_duration_seconds",
			Help:    "Encoder process wall time in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"outcome"},
	)

	EncoderLaunchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_transcoder_encoder_launch_failures_total",
			Help: "Total number of encoder processes that failed to start",
		},
	)

	EncoderSpeed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_transcoder_encoder_speed",
			Help: "Most recent encoding speed multiplier reported by any encoder",
		},
	)

	ProbeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_probe_failures_total",
			Help: "Total number of failed probe invocations",
		},
		[]string{"mode"}, // "json", "duration"
	)
)

// Artifact metrics
var (
	ThumbnailCapturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_thumbnail_captures_total",
			Help: "Total number of thumbnail frame captures",
		},
		[]string{"status"},
	)

	UploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_transcoder_upload_duration_seconds",
			Help:    "Time spent relocating artifacts to remote storage",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	EventsPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_transcoder_events_publish_errors_total",
			Help: "Total number of job events that could not be published",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_db_query_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_transcoder_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_transcoder_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcoder_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors seen",
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_transcoder_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
