// Package logging provides the leveled logger used across the transcoder.
//
// It supports the following log levels:
//   - DEBUG: encoder argument lists, progress samples, probe output
//   - INFO: job lifecycle transitions and startup configuration
//   - WARN: degraded behaviour (font fallback, probe failure, persistence failure)
//   - ERROR: job failures and unrecoverable component errors
//   - FATAL: startup errors that terminate the process
//
// The level is configured via the LOG_LEVEL environment variable, or forced
// to debug with DEBUG=true. Job-scoped output goes through Job, which tags
// every line with the job id.
package logging
