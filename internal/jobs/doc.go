// Package jobs defines the job record, its state machine and the in-memory
// store that is the single source of truth for job state.
//
// The store keeps one entry per job id, each with its own lock, so progress
// updates and deletion of the same job are linearized while different jobs
// proceed independently. Every mutation is written through to a Persister
// before the lock is released; persistence failures are logged and counted
// but never roll back the in-memory state.
package jobs
