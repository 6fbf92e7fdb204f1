package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"streamhive/internal/database"
	"streamhive/internal/logging"
	"streamhive/internal/metrics"
	"streamhive/internal/publisher"
	"streamhive/internal/transcoder"
)

// ErrProcessing is the generic failure returned to clients when the
// pipeline fails. Internal diagnostics are logged, never returned.
var ErrProcessing = errors.New("video processing failed")

// Transcoder converts a raw upload into HLS artifacts in a working
// directory.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, workDir string) (*transcoder.Result, error)
}

// Publisher pushes working-directory artifacts to durable storage.
type Publisher interface {
	Publish(ctx context.Context, workDir, namespace string) (*publisher.Result, error)
}

// Request describes one validated upload handed off by the HTTP layer.
type Request struct {
	Title       string
	Description string
	UploaderID  string
	RawFilePath string
}

// Service orchestrates ingestion runs.
type Service struct {
	db    *database.Database
	trans Transcoder
	pub   Publisher

	workRoot string
	sem      chan struct{}
}

// New creates an ingestion service. workRoot is the parent directory
// for per-video working directories; maxConcurrent caps simultaneous
// transcodes.
func New(db *database.Database, trans Transcoder, pub Publisher, workRoot string, maxConcurrent int) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		db:       db,
		trans:    trans,
		pub:      pub,
		workRoot: workRoot,
		sem:      make(chan struct{}, maxConcurrent),
	}
}

// Ingest runs the full pipeline for one upload and returns the
// finalized catalog record. On any failure it deletes the provisional
// record, the working directory, and the raw uploaded file, then
// returns an error wrapping ErrProcessing.
func (s *Service) Ingest(ctx context.Context, req Request) (*database.Video, error) {
	metrics.IngestInFlight.Inc()
	defer metrics.IngestInFlight.Dec()

	id := uuid.NewString()

	video, err := s.db.CreateVideo(ctx, id, req.Title, req.Description, req.UploaderID)
	if err != nil {
		s.removeRawFile(req.RawFilePath)
		return nil, fmt.Errorf("failed to create catalog record: %w", err)
	}

	workDir := filepath.Join(s.workRoot, id)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		s.abort(ctx, id, workDir, req.RawFilePath)
		logging.Error("Failed to create working directory for %s: %v", id, err)
		return nil, fmt.Errorf("%w: workspace setup", ErrProcessing)
	}

	// Bound concurrent transcodes; each run still owns its private
	// working directory and namespace.
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		s.abort(ctx, id, workDir, req.RawFilePath)
		return nil, ctx.Err()
	}

	transcodeStart := time.Now()
	_, err = s.trans.Transcode(ctx, req.RawFilePath, workDir)
	<-s.sem
	metrics.IngestStageDuration.WithLabelValues("transcode").Observe(time.Since(transcodeStart).Seconds())

	if err != nil {
		metrics.IngestRunsTotal.WithLabelValues("transcode_failed").Inc()
		s.abort(ctx, id, workDir, req.RawFilePath)

		var terr *transcoder.TranscodeError
		if errors.As(err, &terr) {
			logging.Error("Transcode failed for %s at %s stage: %v\n%s", id, terr.Stage, terr.Err, terr.Stderr)
		} else {
			logging.Error("Transcode failed for %s: %v", id, err)
		}
		return nil, fmt.Errorf("%w: transcode", ErrProcessing)
	}

	result, err := s.pub.Publish(ctx, workDir, "videos/"+id)
	if err != nil {
		metrics.IngestRunsTotal.WithLabelValues("publish_failed").Inc()
		s.abort(ctx, id, workDir, req.RawFilePath)
		logging.Error("Publish failed for %s: %v", id, err)
		return nil, fmt.Errorf("%w: publish", ErrProcessing)
	}

	if err := s.db.SetVideoURLs(ctx, id, result.PlaylistURL, result.ThumbnailURL); err != nil {
		metrics.IngestRunsTotal.WithLabelValues("publish_failed").Inc()
		s.abort(ctx, id, workDir, req.RawFilePath)
		logging.Error("Failed to finalize record %s: %v", id, err)
		return nil, fmt.Errorf("%w: finalize", ErrProcessing)
	}

	s.removeRawFile(req.RawFilePath)

	video.PlaylistURL = result.PlaylistURL
	video.ThumbnailURL = result.ThumbnailURL

	metrics.IngestRunsTotal.WithLabelValues("finalized").Inc()
	logging.Info("Ingested video %s (%q)", id, req.Title)

	return video, nil
}

// abort tears down a failed run: the provisional record is deleted
// synchronously so the catalog never exposes it, and the working
// directory and raw upload are removed. Cleanup uses a detached context
// so an aborted request still converges.
func (s *Service) abort(ctx context.Context, id, workDir, rawFilePath string) {
	cleanupCtx := context.WithoutCancel(ctx)

	if err := s.db.DeleteVideo(cleanupCtx, id); err != nil {
		logging.Error("Failed to delete provisional record %s: %v", id, err)
	}
	if err := os.RemoveAll(workDir); err != nil {
		logging.Warn("Failed to remove working directory %s: %v", workDir, err)
	}
	s.removeRawFile(rawFilePath)
}

func (s *Service) removeRawFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("Failed to remove raw upload %s: %v", path, err)
	}
}
