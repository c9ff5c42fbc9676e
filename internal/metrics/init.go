package metrics

// Label values pre-populated by InitializeMetrics.
var (
	jobTypes    = []string{"transcode", "thumbnail"}
	jobStatuses = []string{"queued", "processing", "uploading", "finished", "error"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, t := range jobTypes {
		JobsCreatedTotal.WithLabelValues(t)
		JobsCompletedTotal.WithLabelValues(t, "finished")
		JobsCompletedTotal.WithLabelValues(t, "error")
	}

	for _, s := range jobStatuses {
		JobsByStatus.WithLabelValues(s)
	}

	for _, backend := range []string{"sqlite", "redis"} {
		JobPersistErrors.WithLabelValues(backend, "save")
		JobPersistErrors.WithLabelValues(backend, "delete")
	}

	for _, op := range []string{"save_job", "delete_job", "load_jobs"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"success", "exit_error", "cancelled"} {
		EncoderRunDuration.WithLabelValues(outcome)
	}

	for _, mode := range []string{"json", "duration"} {
		ProbeFailures.WithLabelValues(mode)
	}

	for _, status := range []string{"success", "error"} {
		ThumbnailCapturesTotal.WithLabelValues(status)
		UploadDuration.WithLabelValues(status)
	}

	for _, reason := range []string{"missing", "invalid"} {
		AuthFailures.WithLabelValues(reason)
	}

	for _, op := range []string{"stat", "remove"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
