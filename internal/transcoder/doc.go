// Package transcoder runs transcode and thumbnail jobs.
//
// It supports:
//   - Launching ffmpeg for a job and supervising it until exit
//   - Converting encoder status lines into monotonic job progress
//   - Relocating finished artifacts through a storage.Store, passing through
//     the uploading state when the store is remote
//   - Thumbnail capture, either as a job of its own or after a transcode
//   - Cancellation, deletion with artifact cleanup, and graceful shutdown
//
// Each running job is owned by exactly one goroutine, which is the only
// writer of that job's record until it reaches a terminal state.
package transcoder
