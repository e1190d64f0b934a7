// Package workers sizes encode concurrency for containerized
// environments.
//
// Go 1.19+ sets GOMAXPROCS from container CPU limits, while
// runtime.NumCPU() still reports the host machine. Deriving worker
// counts from GOMAXPROCS keeps software-encode concurrency honest
// under cgroup constraints. Hardware encode paths ignore this and are
// bounded separately, since hardware encode units are typically
// singular per device.
package workers
