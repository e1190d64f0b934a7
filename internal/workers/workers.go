package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a worker count scaled from the available CPUs.
// The limit parameter caps the result; use 0 for no limit.
// Can be overridden with the TRANSCODE_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("TRANSCODE_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	// GOMAXPROCS reflects container CPU limits in Go 1.19+.
	available := runtime.GOMAXPROCS(0)

	count := int(float64(available) * multiplier)
	if count < 1 {
		count = 1
	}
	if limit > 0 && count > limit {
		count = limit
	}

	return count
}

// ForEncode returns the worker count for CPU-bound software encodes
// (1 per CPU). The limit parameter caps the maximum.
func ForEncode(limit int) int {
	return Count(1.0, limit)
}
