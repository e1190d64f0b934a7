// Package memory configures the Go runtime memory limit from container
// limits. Encoding runs ffmpeg as a child process, so only part of the
// container's memory budget belongs to the Go heap; the rest is left as
// headroom for encoder processes.
package memory
