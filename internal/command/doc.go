// Package command turns an effective encoding configuration into the
// ordered argument list for ffmpeg.
//
// The builder emits at most one filter argument: a plain -vf chain for
// scaling and text burn-in, or a -filter_complex graph with explicit stream
// mapping when an image overlay needs a second input. Text watermarks fall
// back to a solid box at the same position when no font file can be found.
//
// Validate performs every configuration check up front so callers can
// reject a request before any process is started.
package command
