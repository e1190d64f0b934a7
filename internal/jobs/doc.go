// Package jobs tracks transcode jobs for their whole lifecycle.
//
// It provides:
//   - An in-memory, concurrency-safe job store keyed by job id
//   - A per-job log broadcaster with full-backlog replay for late
//     subscribers
//   - A background sweeper that evicts terminal jobs and their files
//     after a retention window
//
// The store is the single source of truth for job state. Nothing is
// persisted; a restart discards all job history.
package jobs
