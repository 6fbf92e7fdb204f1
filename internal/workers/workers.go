package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the optimal number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the worker count to prevent resource
// exhaustion. Use 0 for no limit.
//
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

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// Transcoding is CPU-bound: ffmpeg saturates a core per job.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
