// Package metrics provides Prometheus instrumentation for the transcoder.
//
// All metrics are prefixed with "media_transcoder_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, path and status
//   - HTTPRequestDuration: request latency by method and path
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Job Metrics
//
//   - JobsCreatedTotal: jobs accepted, by type
//   - JobsCompletedTotal: jobs reaching a terminal state, by type and status
//   - JobsActive: jobs currently owned by a supervisor
//   - JobsByStatus: snapshot of the job store, refreshed by the Collector
//   - JobPersistErrors: failed durable writes, by backend
//
// ## Encoder Metrics
//
//   - EncoderRunDuration: wall time of encoder processes, by outcome
//   - EncoderLaunchFailures: processes that never started
//   - EncoderSpeed: last reported encoding speed multiplier
//   - ProbeFailures: probe invocations that failed, by mode
//
// ## Artifact Metrics
//
//   - ThumbnailCapturesTotal: single-frame captures by status
//   - UploadDuration: time spent relocating artifacts to remote storage
//   - EventsPublishErrors: job events that could not be delivered
//
// ## Filesystem Metrics
//
//   - FilesystemRetryAttempts / FilesystemStaleErrors: NFS retry behaviour
//     for output stat and cleanup operations
//
// # Usage
//
// Metrics register themselves through promauto at package init. The server
// exposes them on METRICS_PORT at /metrics via promhttp.
package metrics
