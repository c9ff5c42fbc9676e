// Package handlers provides the HTTP API of the transcoder.
//
// It includes handlers for:
//   - Creating, listing, inspecting, cancelling and deleting jobs
//   - Downloading locally stored job outputs and thumbnails
//   - Listing platform presets
//   - Probing a source for stream metadata
//   - Health, liveness, readiness and version checks
//
// Errors are returned as JSON {"error": "..."} and never include local
// filesystem paths.
package handlers
