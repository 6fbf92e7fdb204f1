package database

import (
	"context"
	"fmt"
	"time"
)

// UpsertHistory records or updates a user's playback progress on a
// video.
func (d *Database) UpsertHistory(ctx context.Context, userID, videoID string, progress float64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_history", start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(opCtx, `
		INSERT INTO history (user_id, video_id, progress, last_watched)
		VALUES (?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(user_id, video_id) DO UPDATE SET
			progress = excluded.progress,
			last_watched = strftime('%s', 'now')
	`, userID, videoID, progress)
	if err != nil {
		return fmt.Errorf("failed to record watch history: %w", err)
	}
	return nil
}

// ListHistory returns a user's watch history, most recent first.
func (d *Database) ListHistory(ctx context.Context, userID string) ([]HistoryItem, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_history", start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(opCtx, `
		SELECT video_id, progress, last_watched
		FROM history WHERE user_id = ? ORDER BY last_watched DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watch history: %w", err)
	}
	defer rows.Close()

	var items []HistoryItem
	for rows.Next() {
		var item HistoryItem
		var lastWatched int64
		if err = rows.Scan(&item.VideoID, &item.Progress, &lastWatched); err != nil {
			return nil, fmt.Errorf("failed to scan history item: %w", err)
		}
		item.LastWatched = time.Unix(lastWatched, 0)
		items = append(items, item)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return items, nil
}
