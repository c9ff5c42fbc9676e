// Package thumbnail captures still frames from a media source with ffmpeg.
//
// Two modes are supported:
//   - interval: Count frames spread evenly over the source, at
//     duration/(Count+1)*(i+1), so neither the first nor the last frame is used
//   - explicit: one frame per entry of Timestamps, Count ignored
//
// Captures run concurrently with a worker count sized for I/O-bound work.
// A capture that fails is logged and skipped; only a missing encoder binary
// or zero successful captures fails the whole call. Results are returned in
// timestamp order regardless of completion order.
package thumbnail
