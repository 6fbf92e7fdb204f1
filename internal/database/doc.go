// Package database provides SQLite persistence for the StreamHive
// backend.
//
// It handles storage and retrieval of:
//   - Video catalog records (title, description, playlist/thumbnail
//     URLs, view counts)
//   - User accounts and password-reset tokens
//   - Per-user watch history with playback progress
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization.
package database
