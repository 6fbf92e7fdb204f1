package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"streamhive/internal/database"
	"streamhive/internal/ingest"
	"streamhive/internal/logging"
)

// MaxUploadBytes caps the size of a single video upload.
const MaxUploadBytes = 500 << 20 // 500MB

// UploadVideo accepts a multipart video upload and runs the full
// ingestion pipeline before responding. The uploaded file is validated
// by content sniffing, never by its declared Content-Type or extension.
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := UserFrom(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds 500MB limit")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("Failed to clean up multipart temp files: %v", err)
		}
	}()

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "Please provide a title")
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please upload a video file")
		return
	}
	defer file.Close()

	// Sniff the real content type before anything touches disk.
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unable to read upload")
		return
	}
	if !strings.HasPrefix(mtype.String(), "video/") {
		writeError(w, http.StatusBadRequest, "Please upload a video file")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		logging.Error("Failed to rewind upload: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	rawPath, err := h.stageUpload(file, header.Filename)
	if err != nil {
		logging.Error("Failed to stage upload: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	video, err := h.ingest.Ingest(ctx, ingest.Request{
		Title:       title,
		Description: description,
		UploaderID:  user.ID,
		RawFilePath: rawPath,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrProcessing) {
			writeError(w, http.StatusInternalServerError, "Video processing failed")
			return
		}
		logging.Error("Ingestion failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusCreated, apiResponse{Success: true, Data: video})
}

// ListVideos returns the catalog, newest first. Records still being
// processed are never included.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.db.ListVideos(r.Context())
	if err != nil {
		logging.Error("Failed to list videos: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Count: len(videos), Data: videos})
}

// GetVideo returns a single catalog record and counts the view.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathVar(r, "id")

	video, err := h.db.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Video not found")
			return
		}
		logging.Error("Failed to get video %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := h.db.IncrementViews(ctx, id); err != nil {
		logging.Warn("Failed to count view for %s: %v", id, err)
	} else {
		video.Views++
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: video})
}

// stageUpload copies the validated upload into the staging directory
// and returns its path. The name is timestamped to avoid collisions
// between simultaneous uploads of the same file.
func (h *Handlers) stageUpload(file io.Reader, originalName string) (string, error) {
	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(originalName))
	path := filepath.Join(h.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write staging file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close staging file: %w", err)
	}

	return path, nil
}
