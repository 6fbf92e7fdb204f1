package transcoder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"streamhive/internal/logging"
)

const (
	// PlaylistName is the HLS playlist filename every successful
	// transcode produces inside the working directory.
	PlaylistName = "master.m3u8"
	// ThumbnailName is the thumbnail filename every successful
	// transcode produces inside the working directory.
	ThumbnailName = "thumbnail.png"

	// rawFrameName is the intermediate full-resolution frame extracted
	// by ffmpeg before resizing.
	rawFrameName = "frame.png"

	thumbnailWidth  = 320
	thumbnailHeight = 240

	// DefaultTimeout bounds a single ffmpeg invocation. The upstream
	// system shipped with a multi-day ceiling; half an hour is generous
	// for the 500MB upload cap this service enforces.
	DefaultTimeout = 30 * time.Minute
)

// TranscodeError reports an external process failure, carrying the
// process diagnostics for logging.
type TranscodeError struct {
	Stage  string // "hls" or "thumbnail"
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed at %s stage: %v", e.Stage, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// Result holds the paths of the two deterministic output files.
type Result struct {
	PlaylistPath  string
	ThumbnailPath string
}

// Transcoder converts input videos to segmented HLS output.
type Transcoder struct {
	runner  Runner
	timeout time.Duration
}

// New creates a Transcoder using the given process runner. A timeout of
// zero selects DefaultTimeout.
func New(runner Runner, timeout time.Duration) *Transcoder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Transcoder{runner: runner, timeout: timeout}
}

// Transcode converts inputPath into a flat HLS playlist plus thumbnail
// inside workDir. On failure the partial contents of workDir are left
// in place; cleanup is the caller's responsibility.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, workDir string) (*Result, error) {
	start := time.Now()

	playlistPath := filepath.Join(workDir, PlaylistName)

	// Baseline profile for broad device compatibility. hls_list_size 0
	// keeps every segment in one flat playlist (VOD, no rolling window).
	hlsArgs := []string{
		"-i", inputPath,
		"-profile:v", "baseline",
		"-level", "3.0",
		"-start_number", "0",
		"-hls_time", "10",
		"-hls_list_size", "0",
		"-f", "hls",
		playlistPath,
	}

	if _, stderr, err := t.runner.Run(ctx, workDir, "ffmpeg", t.timeout, hlsArgs...); err != nil {
		return nil, &TranscodeError{Stage: "hls", Stderr: string(stderr), Err: err}
	}

	thumbPath, err := t.extractThumbnail(ctx, inputPath, workDir)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(playlistPath); err != nil {
		return nil, &TranscodeError{Stage: "hls", Err: fmt.Errorf("playlist missing after transcode: %w", err)}
	}

	logging.Info("Transcoded %s in %v", filepath.Base(inputPath), time.Since(start).Round(time.Millisecond))

	return &Result{PlaylistPath: playlistPath, ThumbnailPath: thumbPath}, nil
}

// extractThumbnail pulls one representative frame with ffmpeg, then
// resizes it to the fixed target resolution.
func (t *Transcoder) extractThumbnail(ctx context.Context, inputPath, workDir string) (string, error) {
	framePath := filepath.Join(workDir, rawFrameName)

	frameArgs := []string{
		"-ss", "00:00:01",
		"-i", inputPath,
		"-frames:v", "1",
		"-y",
		framePath,
	}

	if _, stderr, err := t.runner.Run(ctx, workDir, "ffmpeg", t.timeout, frameArgs...); err != nil {
		return "", &TranscodeError{Stage: "thumbnail", Stderr: string(stderr), Err: err}
	}

	frame, err := imaging.Open(framePath)
	if err != nil {
		return "", &TranscodeError{Stage: "thumbnail", Err: fmt.Errorf("failed to decode extracted frame: %w", err)}
	}

	thumb := imaging.Fill(frame, thumbnailWidth, thumbnailHeight, imaging.Center, imaging.Lanczos)

	thumbPath := filepath.Join(workDir, ThumbnailName)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		return "", &TranscodeError{Stage: "thumbnail", Err: fmt.Errorf("failed to save thumbnail: %w", err)}
	}

	if err := os.Remove(framePath); err != nil {
		logging.Warn("failed to remove intermediate frame %s: %v", framePath, err)
	}

	return thumbPath, nil
}
