// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DATA_DIR: SQLite database directory (default: /data)
//   - INPUT_DIR: Root that relative input references resolve under (default: /media)
//   - OUTPUT_DIR: Root for encoder output and local artifacts (default: /output)
//   - FFMPEG_PATH, FFPROBE_PATH: Encoder and prober binaries
//   - FONT_PATHS: Extra fonts for text watermarks, colon separated
//   - CAPTURE_WORKERS: Thumbnail capture parallelism (default: automatic)
//   - STORE_BACKEND: sqlite or redis (default: sqlite)
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB: Redis job store
//   - MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_BUCKET, MINIO_USE_SSL:
//     object storage for artifacts; when set, finished jobs pass through uploading
//   - KAFKA_BROKERS, KAFKA_TOPIC: Job status events
//   - API_KEY_HASH: bcrypt hash of the API key; empty disables authentication
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogStoreInit]: Job store backend and recovered job count
//   - [LogTranscoderInit]: FFmpeg and FFprobe availability
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup
