package ingest

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"streamhive/internal/database"
	"streamhive/internal/publisher"
	"streamhive/internal/storage"
	"streamhive/internal/transcoder"
)

// fakeTranscoder writes the deterministic artifact set into workDir, or
// fails like a non-zero ffmpeg exit.
type fakeTranscoder struct {
	fail bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, _, workDir string) (*transcoder.Result, error) {
	if f.fail {
		return nil, &transcoder.TranscodeError{Stage: "hls", Stderr: "moov atom not found", Err: errors.New("exit status 1")}
	}

	playlist := filepath.Join(workDir, transcoder.PlaylistName)
	thumb := filepath.Join(workDir, transcoder.ThumbnailName)
	for p, content := range map[string]string{
		playlist: "#EXTM3U\nmaster0.ts\n",
		filepath.Join(workDir, "master0.ts"): "segment-data",
		thumb: "png-bytes",
	} {
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return nil, err
		}
	}
	return &transcoder.Result{PlaylistPath: playlist, ThumbnailPath: thumb}, nil
}

// fakeBackend is an in-memory storage.Backend whose uploads can be made
// to fail for a specific filename.
type fakeBackend struct {
	mu      sync.Mutex
	objects map[storage.Key][]byte
	failOn  string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: make(map[storage.Key][]byte)}
}

func (f *fakeBackend) Upload(_ context.Context, content []byte, folder, filename string) (storage.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if filename == f.failOn {
		return "", storage.ErrWrite
	}
	key := storage.Key(path.Join(folder, filename))
	f.objects[key] = append([]byte(nil), content...)
	return key, nil
}

func (f *fakeBackend) Delete(_ context.Context, key storage.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBackend) ResolveURL(key storage.Key) string {
	return "/uploads/" + string(key)
}

type fixture struct {
	svc      *Service
	db       *database.Database
	backend  *fakeBackend
	user     *database.User
	rawFile  string
	workRoot string
}

func newFixture(t *testing.T, trans Transcoder, backend *fakeBackend) *fixture {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "streamhive.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	user, err := db.CreateUser(context.Background(), uuid.NewString(), "uploader", "uploader@example.com", "pw123456")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	rawFile := filepath.Join(t.TempDir(), "upload-12345.mp4")
	if err := os.WriteFile(rawFile, []byte("raw-video-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	workRoot := t.TempDir()

	return &fixture{
		svc:      New(db, trans, publisher.New(backend), workRoot, 2),
		db:       db,
		backend:  backend,
		user:     user,
		rawFile:  rawFile,
		workRoot: workRoot,
	}
}

func TestIngestSuccess(t *testing.T) {
	fx := newFixture(t, &fakeTranscoder{}, newFakeBackend())

	video, err := fx.svc.Ingest(context.Background(), Request{
		Title:       "Test Clip",
		Description: "five seconds of color bars",
		UploaderID:  fx.user.ID,
		RawFilePath: fx.rawFile,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if !strings.HasSuffix(video.PlaylistURL, "/master.m3u8") {
		t.Errorf("PlaylistURL = %s, want master.m3u8 suffix", video.PlaylistURL)
	}
	if !strings.HasSuffix(video.ThumbnailURL, "/thumbnail.png") {
		t.Errorf("ThumbnailURL = %s, want thumbnail.png suffix", video.ThumbnailURL)
	}

	// Finalized record persisted with the same URLs
	stored, err := fx.db.GetVideo(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if stored.PlaylistURL != video.PlaylistURL || stored.ThumbnailURL != video.ThumbnailURL {
		t.Error("persisted record URLs differ from returned record")
	}

	// Uploaded objects live under the record's namespace
	if _, ok := fx.backend.objects[storage.Key("videos/"+video.ID+"/master.m3u8")]; !ok {
		t.Error("playlist not uploaded under videos/{id}/")
	}

	// Raw upload removed after finalization
	if _, err := os.Stat(fx.rawFile); !os.IsNotExist(err) {
		t.Error("raw uploaded file not removed on success")
	}

	// Working directory destroyed
	if _, err := os.Stat(filepath.Join(fx.workRoot, video.ID)); !os.IsNotExist(err) {
		t.Error("working directory not removed on success")
	}
}

func TestIngestTranscodeFailure(t *testing.T) {
	fx := newFixture(t, &fakeTranscoder{fail: true}, newFakeBackend())

	_, err := fx.svc.Ingest(context.Background(), Request{
		Title:       "Broken",
		UploaderID:  fx.user.ID,
		RawFilePath: fx.rawFile,
	})
	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("Ingest() error = %v, want ErrProcessing", err)
	}

	// No orphaned record remains
	videos, err := fx.db.ListVideos(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 0 {
		t.Errorf("catalog has %d records after transcode failure, want 0", len(videos))
	}

	// Raw file and working directories cleaned up
	if _, err := os.Stat(fx.rawFile); !os.IsNotExist(err) {
		t.Error("raw uploaded file not removed on transcode failure")
	}
	entries, err := os.ReadDir(fx.workRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Error("working directory left behind on transcode failure")
	}
}

func TestIngestPublishFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failOn = "master0.ts"
	fx := newFixture(t, &fakeTranscoder{}, backend)

	_, err := fx.svc.Ingest(context.Background(), Request{
		Title:       "Partial",
		UploaderID:  fx.user.ID,
		RawFilePath: fx.rawFile,
	})
	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("Ingest() error = %v, want ErrProcessing", err)
	}

	// Record deleted; catalog never exposes an unplayable entry
	videos, err := fx.db.ListVideos(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 0 {
		t.Errorf("catalog has %d records after publish failure, want 0", len(videos))
	}

	// Objects uploaded before the failure are not rolled back
	fx.backend.mu.Lock()
	remaining := len(fx.backend.objects)
	fx.backend.mu.Unlock()
	if remaining == 0 {
		t.Error("expected earlier uploads to remain in the backend (no rollback)")
	}
}

func TestIngestCanceledBeforeTranscode(t *testing.T) {
	fx := newFixture(t, &fakeTranscoder{}, newFakeBackend())

	// Saturate the semaphore so the run blocks at acquisition, then
	// cancel.
	fx.svc.sem <- struct{}{}
	fx.svc.sem <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fx.svc.Ingest(ctx, Request{
		Title:       "Canceled",
		UploaderID:  fx.user.ID,
		RawFilePath: fx.rawFile,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Ingest() error = %v, want context.Canceled", err)
	}

	// Provisional record cleaned up despite the canceled request context
	videos, err := fx.db.ListVideos(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 0 {
		t.Error("provisional record left behind after cancellation")
	}
}

func TestIngestConcurrentRuns(t *testing.T) {
	fx := newFixture(t, &fakeTranscoder{}, newFakeBackend())

	const runs = 4
	rawFiles := make([]string, runs)
	for i := range rawFiles {
		rawFiles[i] = filepath.Join(t.TempDir(), "upload.mp4")
		if err := os.WriteFile(rawFiles[i], []byte("raw"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Ingest(context.Background(), Request{
				Title:       "Concurrent",
				UploaderID:  fx.user.ID,
				RawFilePath: rawFiles[i],
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("run %d: Ingest() error = %v", i, err)
		}
	}

	videos, err := fx.db.ListVideos(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != runs {
		t.Errorf("catalog has %d records, want %d", len(videos), runs)
	}
}
