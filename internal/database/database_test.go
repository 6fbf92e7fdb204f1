package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := New(context.Background(), filepath.Join(t.TempDir(), "streamhive.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func newTestUser(t *testing.T, db *Database) *User {
	t.Helper()

	user, err := db.CreateUser(context.Background(), uuid.NewString(), "alice", uuid.NewString()+"@example.com", "hunter22")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func TestCreateAndGetVideo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db)

	id := uuid.NewString()
	created, err := db.CreateVideo(ctx, id, "Test Clip", "A short test video", user.ID)
	if err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}

	if created.PlaylistURL != "" {
		t.Errorf("provisional record has PlaylistURL = %q, want empty", created.PlaylistURL)
	}
	if created.ThumbnailURL != PlaceholderThumbnail {
		t.Errorf("provisional record has ThumbnailURL = %q, want placeholder", created.ThumbnailURL)
	}

	got, err := db.GetVideo(ctx, id)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.Title != "Test Clip" || got.Description != "A short test video" {
		t.Errorf("GetVideo() = %+v, fields do not match", got)
	}
	if got.UploaderID != user.ID {
		t.Errorf("UploaderID = %s, want %s", got.UploaderID, user.ID)
	}
}

func TestGetVideoNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetVideo(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetVideo() error = %v, want ErrNotFound", err)
	}
}

func TestListVideosHidesProvisionalRecords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db)

	provisional := uuid.NewString()
	finalized := uuid.NewString()

	if _, err := db.CreateVideo(ctx, provisional, "Still processing", "", user.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateVideo(ctx, finalized, "Done", "", user.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.SetVideoURLs(ctx, finalized, "/uploads/videos/x/master.m3u8", "/uploads/videos/x/thumbnail.png"); err != nil {
		t.Fatal(err)
	}

	videos, err := db.ListVideos(ctx)
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}

	if len(videos) != 1 {
		t.Fatalf("ListVideos() returned %d records, want 1 (provisional hidden)", len(videos))
	}
	if videos[0].ID != finalized {
		t.Errorf("ListVideos() returned %s, want finalized record %s", videos[0].ID, finalized)
	}
}

func TestSetVideoURLs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db)

	id := uuid.NewString()
	if _, err := db.CreateVideo(ctx, id, "Clip", "", user.ID); err != nil {
		t.Fatal(err)
	}

	if err := db.SetVideoURLs(ctx, id, "/uploads/videos/v/master.m3u8", "/uploads/videos/v/thumbnail.png"); err != nil {
		t.Fatalf("SetVideoURLs() error = %v", err)
	}

	got, err := db.GetVideo(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.PlaylistURL != "/uploads/videos/v/master.m3u8" {
		t.Errorf("PlaylistURL = %s", got.PlaylistURL)
	}
	if got.ThumbnailURL != "/uploads/videos/v/thumbnail.png" {
		t.Errorf("ThumbnailURL = %s", got.ThumbnailURL)
	}

	if err := db.SetVideoURLs(ctx, "missing", "a", "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetVideoURLs() on missing record = %v, want ErrNotFound", err)
	}
}

func TestDeleteVideoIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db)

	id := uuid.NewString()
	if _, err := db.CreateVideo(ctx, id, "Clip", "", user.ID); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteVideo(ctx, id); err != nil {
		t.Fatalf("DeleteVideo() error = %v", err)
	}
	if _, err := db.GetVideo(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetVideo() after delete = %v, want ErrNotFound", err)
	}

	// Failure-path cleanup may delete twice
	if err := db.DeleteVideo(ctx, id); err != nil {
		t.Errorf("second DeleteVideo() error = %v, want nil", err)
	}
}

func TestIncrementViews(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db)

	id := uuid.NewString()
	if _, err := db.CreateVideo(ctx, id, "Clip", "", user.ID); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := db.IncrementViews(ctx, id); err != nil {
			t.Fatalf("IncrementViews() error = %v", err)
		}
	}

	got, err := db.GetVideo(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Views != 3 {
		t.Errorf("Views = %d, want 3", got.Views)
	}
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user, err := db.CreateUser(ctx, uuid.NewString(), "bob", "bob@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := db.Authenticate(ctx, "bob@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Authenticate() returned user %s, want %s", got.ID, user.ID)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"WrongPassword", "bob@example.com", "wrong"},
		{"UnknownEmail", "nobody@example.com", "correct-horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Authenticate(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateUser(ctx, uuid.NewString(), "carol", "carol@example.com", "pw123456"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUser(ctx, uuid.NewString(), "carol2", "carol@example.com", "pw123456"); err == nil {
		t.Error("CreateUser() with duplicate email succeeded, want error")
	}
}

func TestPasswordReset(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateUser(ctx, uuid.NewString(), "dave", "dave@example.com", "old-password"); err != nil {
		t.Fatal(err)
	}

	token, err := db.CreateResetToken(ctx, "dave@example.com")
	if err != nil {
		t.Fatalf("CreateResetToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("CreateResetToken() returned empty token")
	}

	if err := db.ResetPassword(ctx, token, "new-password"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	if _, err := db.Authenticate(ctx, "dave@example.com", "new-password"); err != nil {
		t.Errorf("Authenticate() with new password error = %v", err)
	}
	if _, err := db.Authenticate(ctx, "dave@example.com", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still accepted after reset")
	}

	// Token is single-use
	if err := db.ResetPassword(ctx, token, "another"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResetPassword() with used token = %v, want ErrNotFound", err)
	}
}

func TestCreateResetTokenUnknownEmail(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.CreateResetToken(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateResetToken() error = %v, want ErrNotFound", err)
	}
}

func TestHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db)

	v1 := uuid.NewString()
	v2 := uuid.NewString()
	for _, id := range []string{v1, v2} {
		if _, err := db.CreateVideo(ctx, id, "Clip "+id[:4], "", user.ID); err != nil {
			t.Fatal(err)
		}
	}

	if err := db.UpsertHistory(ctx, user.ID, v1, 12.5); err != nil {
		t.Fatalf("UpsertHistory() error = %v", err)
	}
	if err := db.UpsertHistory(ctx, user.ID, v2, 3.0); err != nil {
		t.Fatalf("UpsertHistory() error = %v", err)
	}
	// Re-watching updates progress in place
	if err := db.UpsertHistory(ctx, user.ID, v1, 47.0); err != nil {
		t.Fatalf("UpsertHistory() update error = %v", err)
	}

	items, err := db.ListHistory(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("ListHistory() returned %d items, want 2", len(items))
	}

	byVideo := make(map[string]float64)
	for _, item := range items {
		byVideo[item.VideoID] = item.Progress
	}
	if byVideo[v1] != 47.0 {
		t.Errorf("progress for v1 = %f, want 47.0", byVideo[v1])
	}
	if byVideo[v2] != 3.0 {
		t.Errorf("progress for v2 = %f, want 3.0", byVideo[v2])
	}
}
