package transcoder

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"streamhive/internal/logging"
	"streamhive/internal/metrics"
)

// Runner executes an external process in a working directory and
// returns its captured output. Implementations must enforce the given
// timeout and kill the process when it expires or when ctx is canceled.
type Runner interface {
	Run(ctx context.Context, dir, name string, timeout time.Duration, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs processes via os/exec.
type ExecRunner struct{}

// Run executes name with args in dir, killing the process if it exceeds
// timeout or the context is canceled.
func (ExecRunner) Run(ctx context.Context, dir, name string, timeout time.Duration, args ...string) ([]byte, []byte, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && runCtx.Err() != nil {
		metrics.TranscodeProcessKills.Inc()
		logging.Warn("Killed %s after %v in %s: %v", name, timeout, dir, runCtx.Err())
		// Prefer the deadline error over the opaque "signal: killed"
		err = runCtx.Err()
	}

	return stdout.Bytes(), stderr.Bytes(), err
}

// CheckFFmpeg verifies that ffmpeg is installed and runnable.
func CheckFFmpeg(ctx context.Context) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return errors.New("ffmpeg not found in PATH")
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return exec.CommandContext(checkCtx, "ffmpeg", "-version").Run()
}
