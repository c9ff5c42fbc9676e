// Package probe extracts container and stream metadata with ffprobe.
//
// Probe runs ffprobe in JSON mode. Duration uses the JSON result and falls
// back to a minimal plain-text invocation when that fails. Probe errors are
// meant to be non-fatal: callers substitute a zero duration and carry on.
package probe
