package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"streamhive/internal/logging"
	"streamhive/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// PlaceholderThumbnail is the thumbnail URL assigned to catalog records
// until publishing succeeds.
const PlaceholderThumbnail = "/static/no-photo.jpg"

// Database manages all persistence for the StreamHive backend.
type Database struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and initializes
// the schema. The parent directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	// busy_timeout prevents "database is locked" errors when concurrent
	// ingestion runs finalize records at the same time
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		avatar TEXT NOT NULL DEFAULT '',
		reset_token TEXT,
		reset_expires INTEGER,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users(reset_token);

	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		playlist_url TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '` + PlaceholderThumbnail + `',
		duration REAL NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		uploader_id TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (uploader_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_videos_uploader ON videos(uploader_id);
	CREATE INDEX IF NOT EXISTS idx_videos_created ON videos(created_at);

	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		progress REAL NOT NULL DEFAULT 0,
		last_watched INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE,
		UNIQUE(user_id, video_id)
	);

	CREATE INDEX IF NOT EXISTS idx_history_user ON history(user_id);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Ping verifies the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}
