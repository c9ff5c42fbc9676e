// Package main provides the entry point for the transcoder service.
//
// The transcoder accepts encoding and thumbnail jobs over an HTTP API,
// supervises ffmpeg for each one, and records progress in a durable job
// store.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Sizes GOMEMLIMIT from MEMORY_LIMIT, reads
//     environment variables and validates directories
//  2. Job Store: Opens SQLite or Redis and recovers jobs from the previous run
//  3. Component Initialization:
//     - Artifact storage: local output directory or MinIO
//     - Job events: Kafka publisher when brokers are configured
//     - Transcoder: ffmpeg supervision, progress tracking and thumbnails
//     - Metrics Collector: Gathers Prometheus job and database pool gauges
//  4. HTTP Server Setup: Registers routes and middleware, starts the API and
//     metrics servers
//  5. Graceful Shutdown: Handles SIGINT/SIGTERM, cancels running jobs and
//     closes every backend
//
// # Middleware
//
// Requests pass through, outermost first: W3C request logging, Prometheus
// request metrics, then API key authentication.
package main
