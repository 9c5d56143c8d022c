// Package jobs implements the asynchronous transcription pipeline: an
// in-memory job store, a submit path that acknowledges a job id immediately,
// a worker pool performing the remote transcription call, and a read-only
// status view for client polling.
//
// A job's status moves monotonically:
//
//	pending -> processing -> completed | failed
//
// Terminal states are never left. Exactly one of result/error is set once a
// job is terminal. The remote call gets a single attempt; any failure is
// terminal for the job and is surfaced only through subsequent status reads.
//
// The store is volatile and process-local. Terminal jobs are evicted after a
// configurable retention window; everything is lost on restart.
package jobs
