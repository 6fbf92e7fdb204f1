package database

import "time"

// Video is a catalog record. A record with a non-empty PlaylistURL is
// playable; records that never reach that state are deleted by the
// ingestion orchestrator rather than left in the catalog.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PlaylistURL  string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	UploaderID   string    `json:"uploader"`
	CreatedAt    time.Time `json:"createdAt"`
}

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`

	PasswordHash string `json:"-"`
}

// HistoryItem records a user's playback progress on one video.
type HistoryItem struct {
	VideoID     string    `json:"video"`
	Progress    float64   `json:"progress"`
	LastWatched time.Time `json:"lastWatched"`
}
