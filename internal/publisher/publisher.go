package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"streamhive/internal/logging"
	"streamhive/internal/metrics"
	"streamhive/internal/storage"
	"streamhive/internal/transcoder"
)

// PublishError reports a failed publish: either an upload error or an
// expected artifact missing from the working directory.
type PublishError struct {
	Filename string
	Err      error
}

func (e *PublishError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("publish failed on %s: %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("publish failed: %v", e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Result carries the resolved public URLs of the two required
// artifacts.
type Result struct {
	PlaylistURL  string
	ThumbnailURL string
}

// Publisher uploads produced artifacts to a storage backend.
type Publisher struct {
	backend storage.Backend
}

// New creates a Publisher using the given backend.
func New(backend storage.Backend) *Publisher {
	return &Publisher{backend: backend}
}

// Publish uploads every file directly inside workDir under
// namespace/filename and returns the resolved playlist and thumbnail
// URLs.
//
// Local copies are deleted after each successful upload as best-effort
// cleanup. The first upload failure aborts the remaining uploads;
// objects already uploaded in this run are not rolled back. On success
// the emptied working directory is removed.
func (p *Publisher) Publish(ctx context.Context, workDir, namespace string) (*Result, error) {
	start := time.Now()

	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, &PublishError{Err: fmt.Errorf("failed to read working directory: %w", err)}
	}

	var result Result
	uploaded := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		localPath := filepath.Join(workDir, name)

		content, err := os.ReadFile(localPath)
		if err != nil {
			return nil, &PublishError{Filename: name, Err: fmt.Errorf("%w: %v", storage.ErrWrite, err)}
		}

		key, err := p.backend.Upload(ctx, content, namespace, name)
		if err != nil {
			return nil, &PublishError{Filename: name, Err: err}
		}
		uploaded++

		switch name {
		case transcoder.PlaylistName:
			result.PlaylistURL = p.backend.ResolveURL(key)
		case transcoder.ThumbnailName:
			result.ThumbnailURL = p.backend.ResolveURL(key)
		}

		if err := os.Remove(localPath); err != nil {
			logging.Warn("failed to remove local artifact %s: %v", localPath, err)
		}
	}

	if result.PlaylistURL == "" {
		return nil, &PublishError{Filename: transcoder.PlaylistName, Err: fmt.Errorf("expected playlist not produced")}
	}
	if result.ThumbnailURL == "" {
		return nil, &PublishError{Filename: transcoder.ThumbnailName, Err: fmt.Errorf("expected thumbnail not produced")}
	}

	if err := os.Remove(workDir); err != nil {
		logging.Warn("failed to remove working directory %s: %v", workDir, err)
	}

	metrics.IngestStageDuration.WithLabelValues("publish").Observe(time.Since(start).Seconds())
	logging.Debug("Published %d artifacts to %s in %v", uploaded, namespace, time.Since(start).Round(time.Millisecond))

	return &result, nil
}
