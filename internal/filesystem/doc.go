/*
Package filesystem wraps the few filesystem operations the job engine depends
on with retry logic for NFS stale file handle errors.

Output and thumbnail directories are frequently network mounts. A stat of a
freshly written encoder output, or the removal of an artifact during job
deletion, can transiently fail with ESTALE (errno 116). These helpers retry
such failures with capped exponential backoff and pass every other error
straight through.

# Usage

	info, err := filesystem.StatWithRetry(outputPath, filesystem.DefaultRetryConfig())
	if errors.Is(err, os.ErrNotExist) {
	    // the encoder exited cleanly but produced nothing
	}

	// Removing a path that does not exist is not an error.
	err = filesystem.RemoveWithRetry(partialOutput, filesystem.DefaultRetryConfig())

FileSize is a convenience for the common "stat, then read Size" pattern and
returns 0 for anything that is missing or not a regular file.
*/
package filesystem
