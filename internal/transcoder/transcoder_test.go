package transcoder

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

// fakeRunner simulates ffmpeg invocations. The HLS invocation writes a
// playlist plus segments; the thumbnail invocation writes a decodable
// PNG frame.
type fakeRunner struct {
	failHLS       bool
	failThumbnail bool
	calls         int
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, _ time.Duration, args ...string) ([]byte, []byte, error) {
	f.calls++

	if name != "ffmpeg" {
		return nil, nil, errors.New("unexpected binary: " + name)
	}

	if isHLSInvocation(args) {
		if f.failHLS {
			return nil, []byte("Invalid data found when processing input"), errors.New("exit status 1")
		}
		writeFile(dir, PlaylistName, "#EXTM3U\n#EXTINF:10.0,\nmaster0.ts\n#EXT-X-ENDLIST\n")
		writeFile(dir, "master0.ts", "fake-segment-data")
		return nil, nil, nil
	}

	if f.failThumbnail {
		return nil, []byte("Output file is empty"), errors.New("exit status 1")
	}
	writePNG(filepath.Join(dir, rawFrameName), 640, 480)
	return nil, nil, nil
}

func isHLSInvocation(args []string) bool {
	for _, a := range args {
		if a == "hls" {
			return true
		}
	}
	return false
}

func writeFile(dir, name, content string) {
	_ = os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}

func writePNG(path string, w, h int) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	_ = png.Encode(f, img)
}

func TestTranscodeSuccess(t *testing.T) {
	workDir := t.TempDir()
	runner := &fakeRunner{}
	trans := New(runner, 0)

	result, err := trans.Transcode(context.Background(), "/tmp/input.mp4", workDir)
	if err != nil {
		t.Fatalf("Transcode() error = %v", err)
	}

	if result.PlaylistPath != filepath.Join(workDir, PlaylistName) {
		t.Errorf("PlaylistPath = %s, want %s in workDir", result.PlaylistPath, PlaylistName)
	}
	if result.ThumbnailPath != filepath.Join(workDir, ThumbnailName) {
		t.Errorf("ThumbnailPath = %s, want %s in workDir", result.ThumbnailPath, ThumbnailName)
	}

	// Both guaranteed files exist at deterministic names
	for _, p := range []string{result.PlaylistPath, result.ThumbnailPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected output file missing: %v", err)
		}
	}

	// Thumbnail was resized to the fixed target resolution
	thumb, err := imaging.Open(result.ThumbnailPath)
	if err != nil {
		t.Fatalf("thumbnail not decodable: %v", err)
	}
	bounds := thumb.Bounds()
	if bounds.Dx() != thumbnailWidth || bounds.Dy() != thumbnailHeight {
		t.Errorf("thumbnail size = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), thumbnailWidth, thumbnailHeight)
	}

	// Intermediate frame removed
	if _, err := os.Stat(filepath.Join(workDir, rawFrameName)); !os.IsNotExist(err) {
		t.Error("intermediate frame left behind")
	}

	if runner.calls != 2 {
		t.Errorf("runner invoked %d times, want 2 (hls + thumbnail)", runner.calls)
	}
}

func TestTranscodeHLSFailure(t *testing.T) {
	workDir := t.TempDir()
	trans := New(&fakeRunner{failHLS: true}, 0)

	_, err := trans.Transcode(context.Background(), "/tmp/input.mp4", workDir)
	if err == nil {
		t.Fatal("Transcode() succeeded, want error")
	}

	var terr *TranscodeError
	if !errors.As(err, &terr) {
		t.Fatalf("error type = %T, want *TranscodeError", err)
	}
	if terr.Stage != "hls" {
		t.Errorf("Stage = %s, want hls", terr.Stage)
	}
	if !strings.Contains(terr.Stderr, "Invalid data") {
		t.Errorf("Stderr = %q, want process diagnostics", terr.Stderr)
	}
}

func TestTranscodeThumbnailFailure(t *testing.T) {
	workDir := t.TempDir()
	trans := New(&fakeRunner{failThumbnail: true}, 0)

	_, err := trans.Transcode(context.Background(), "/tmp/input.mp4", workDir)

	var terr *TranscodeError
	if !errors.As(err, &terr) {
		t.Fatalf("error type = %T, want *TranscodeError", err)
	}
	if terr.Stage != "thumbnail" {
		t.Errorf("Stage = %s, want thumbnail", terr.Stage)
	}

	// Partial HLS output is left in place for the caller to clean up
	if _, err := os.Stat(filepath.Join(workDir, PlaylistName)); err != nil {
		t.Error("expected partial playlist to remain in workDir on failure")
	}
}

func TestNewDefaultTimeout(t *testing.T) {
	trans := New(&fakeRunner{}, 0)
	if trans.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want DefaultTimeout %v", trans.timeout, DefaultTimeout)
	}

	trans = New(&fakeRunner{}, 5*time.Minute)
	if trans.timeout != 5*time.Minute {
		t.Errorf("timeout = %v, want 5m", trans.timeout)
	}
}

func TestExecRunnerTimeout(t *testing.T) {
	if _, err := os.Stat("/bin/sleep"); err != nil {
		t.Skip("/bin/sleep not available")
	}

	runner := ExecRunner{}
	start := time.Now()
	_, _, err := runner.Run(context.Background(), t.TempDir(), "/bin/sleep", 100*time.Millisecond, "10")

	if err == nil {
		t.Fatal("Run() succeeded, want timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run() took %v, process not killed promptly", elapsed)
	}
}
