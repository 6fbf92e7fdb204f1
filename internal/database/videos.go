package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// CreateVideo inserts a provisional catalog record. The playlist URL
// starts empty and the thumbnail URL starts at the placeholder; both are
// filled in by SetVideoURLs when publishing succeeds.
func (d *Database) CreateVideo(ctx context.Context, id, title, description, uploaderID string) (*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_video", start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	_, err = d.db.ExecContext(opCtx, `
		INSERT INTO videos (id, title, description, uploader_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, title, description, uploaderID, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}

	return &Video{
		ID:           id,
		Title:        title,
		Description:  description,
		ThumbnailURL: PlaceholderThumbnail,
		UploaderID:   uploaderID,
		CreatedAt:    now,
	}, nil
}

// GetVideo retrieves a single catalog record by id.
func (d *Database) GetVideo(ctx context.Context, id string) (*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_video", start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v Video
	var createdAt int64

	err = d.db.QueryRowContext(opCtx, `
		SELECT id, title, description, playlist_url, thumbnail_url, duration, views, uploader_id, created_at
		FROM videos WHERE id = ?
	`, id).Scan(&v.ID, &v.Title, &v.Description, &v.PlaylistURL, &v.ThumbnailURL,
		&v.Duration, &v.Views, &v.UploaderID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	v.CreatedAt = time.Unix(createdAt, 0)
	return &v, nil
}

// ListVideos returns playable catalog records, newest first. Records
// without a playlist URL are provisional and never exposed.
func (d *Database) ListVideos(ctx context.Context) ([]Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_videos", start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(opCtx, `
		SELECT id, title, description, playlist_url, thumbnail_url, duration, views, uploader_id, created_at
		FROM videos WHERE playlist_url != '' ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		var createdAt int64
		if err = rows.Scan(&v.ID, &v.Title, &v.Description, &v.PlaylistURL, &v.ThumbnailURL,
			&v.Duration, &v.Views, &v.UploaderID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		v.CreatedAt = time.Unix(createdAt, 0)
		videos = append(videos, v)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return videos, nil
}

// SetVideoURLs finalizes a record with its published playlist and
// thumbnail URLs.
func (d *Database) SetVideoURLs(ctx context.Context, id, playlistURL, thumbnailURL string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_video_urls", start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(opCtx, `
		UPDATE videos SET playlist_url = ?, thumbnail_url = ? WHERE id = ?
	`, playlistURL, thumbnailURL, id)
	if err != nil {
		return fmt.Errorf("failed to update video URLs: %w", err)
	}

	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// IncrementViews bumps the view counter for a video.
func (d *Database) IncrementViews(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("increment_views", start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(opCtx, `UPDATE videos SET views = views + 1 WHERE id = ?`, id)
	return err
}

// DeleteVideo removes a catalog record. Deleting a missing record is
// not an error, which keeps failure-path cleanup idempotent.
func (d *Database) DeleteVideo(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_video", start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(opCtx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return nil
}
