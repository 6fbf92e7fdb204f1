package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name       string
		multiplier float64
		limit      int
	}{
		{"CPUBound", 1.0, 0},
		{"IOBound", 2.0, 0},
		{"WithLimit", 2.0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := Count(tt.multiplier, tt.limit)

			if count < 1 {
				t.Errorf("Count() = %d, want at least 1", count)
			}

			if tt.limit > 0 && count > tt.limit {
				t.Errorf("Count() = %d, exceeds limit %d", count, tt.limit)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	t.Setenv("TRANSCODE_WORKERS", "3")

	if got := Count(1.0, 0); got != 3 {
		t.Errorf("Count() = %d, want 3 from TRANSCODE_WORKERS", got)
	}

	// Override still respects the limit
	if got := Count(1.0, 2); got != 2 {
		t.Errorf("Count() = %d, want limit of 2", got)
	}
}

func TestCountInvalidOverride(t *testing.T) {
	t.Setenv("TRANSCODE_WORKERS", "not-a-number")

	count := Count(1.0, 0)
	if count < 1 || count > runtime.GOMAXPROCS(0) {
		t.Errorf("Count() = %d, expected fallback to CPU-based sizing", count)
	}
}

func TestForCPU(t *testing.T) {
	if got := ForCPU(0); got < 1 {
		t.Errorf("ForCPU() = %d, want at least 1", got)
	}
}

func TestForIO(t *testing.T) {
	cpu := ForCPU(0)
	io := ForIO(0)

	if io < cpu {
		t.Errorf("ForIO() = %d, expected >= ForCPU() = %d", io, cpu)
	}
}
