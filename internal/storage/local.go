package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"streamhive/internal/logging"
	"streamhive/internal/metrics"
)

// Local stores objects as files under an uploads root directory.
// Resolved URLs are paths under /uploads/ and rely on the HTTP server
// mounting the uploads root as a static file handler.
type Local struct {
	root string
}

// NewLocal creates a local storage backend rooted at dir, creating the
// directory if necessary.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Local{root: abs}, nil
}

// Upload writes content under folder/filename, creating intermediate
// directories as needed. An existing object at the same key is
// overwritten.
func (l *Local) Upload(ctx context.Context, content []byte, folder, filename string) (Key, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(l.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.StorageOpsTotal.WithLabelValues("local", "upload", "error").Inc()
		return "", fmt.Errorf("%w: creating folder %s: %v", ErrWrite, folder, err)
	}

	target := filepath.Join(dir, filename)
	if err := os.WriteFile(target, content, 0o644); err != nil {
		metrics.StorageOpsTotal.WithLabelValues("local", "upload", "error").Inc()
		return "", fmt.Errorf("%w: writing %s: %v", ErrWrite, filename, err)
	}

	metrics.StorageOpsTotal.WithLabelValues("local", "upload", "success").Inc()
	metrics.StorageUploadBytes.WithLabelValues("local").Add(float64(len(content)))
	logging.Debug("Stored %s/%s (%d bytes)", folder, filename, len(content))

	return Key(path.Join(folder, filename)), nil
}

// Delete removes the object at key. A missing object is not an error.
func (l *Local) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(l.root, filepath.FromSlash(string(key)))
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		metrics.StorageOpsTotal.WithLabelValues("local", "delete", "error").Inc()
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	metrics.StorageOpsTotal.WithLabelValues("local", "delete", "success").Inc()
	return nil
}

// ResolveURL maps a key to its static-mount path.
func (l *Local) ResolveURL(key Key) string {
	return "/uploads/" + string(key)
}

// Root returns the uploads root directory, used by the HTTP server to
// mount the static file handler.
func (l *Local) Root() string {
	return l.root
}
