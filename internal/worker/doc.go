// Package worker runs the encoding process for accepted jobs.
//
// Each dispatched job is claimed exactly once, encoded by an external
// FFmpeg process, and driven to a terminal state. Process output is
// forwarded line by line to the job's log stream, progress is parsed
// from FFmpeg's time= readings, and temp files are removed when the
// process exits regardless of outcome.
//
// The external invocation sits behind the Runner interface so the
// lifecycle logic is tested against a fake without spawning processes.
package worker
