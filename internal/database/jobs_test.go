package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"media-transcoder/internal/jobs"
	"media-transcoder/internal/probe"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
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

func sampleJob() *jobs.Job {
	ref := "minio://media/out/abc.mp4"
	detail := "thumbnail capture failed"
	created := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	started := created.Add(2 * time.Second)

	return &jobs.Job{
		ID:               "abc",
		Input:            "uploads/in.mov",
		Type:             jobs.TypeTranscode,
		Status:           jobs.StatusFinished,
		Progress:         100,
		OutputReference:  &ref,
		CreatedAt:        created,
		StartedAt:        &started,
		UpdatedAt:        started.Add(time.Minute),
		Detail:           &detail,
		InputSize:        4096,
		OutputSize:       1024,
		CompressionRatio: 0.25,
		Bitrate:          "8000k",
		Preset:           "youtube-hd",
		Warnings:         []string{"thumbnails: no frames captured"},
		Thumbnails:       []string{"minio://media/out/abc/thumb_001.jpg"},
		Metadata: &probe.Result{
			Format: probe.Format{Name: "mov", Duration: 62.5, Size: 4096, BitRate: 524},
			Video:  &probe.VideoStream{Codec: "h264", Width: 1920, Height: 1080, FrameRate: 29.97},
			Audio:  &probe.AudioStream{Codec: "aac", SampleRate: 48000, Channels: 2},
		},
		OutputPath: "/output/abc.mp4",
	}
}

func assertJobsEqual(t *testing.T, got, want *jobs.Job) {
	t.Helper()

	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("timestamps differ: got %v/%v want %v/%v", got.CreatedAt, got.UpdatedAt, want.CreatedAt, want.UpdatedAt)
	}
	if (got.StartedAt == nil) != (want.StartedAt == nil) ||
		(got.StartedAt != nil && !got.StartedAt.Equal(*want.StartedAt)) {
		t.Errorf("StartedAt differs: got %v want %v", got.StartedAt, want.StartedAt)
	}

	// Times compared above; normalize them so DeepEqual checks the rest.
	g, w := got.Clone(), want.Clone()
	g.CreatedAt, g.UpdatedAt, g.StartedAt = time.Time{}, time.Time{}, nil
	w.CreatedAt, w.UpdatedAt, w.StartedAt = time.Time{}, time.Time{}, nil

	if !reflect.DeepEqual(g, w) {
		t.Errorf("job mismatch\n got: %+v\nwant: %+v", g, w)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	want := sampleJob()
	if err := db.SaveJob(ctx, want); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	loaded, err := db.LoadJobs(ctx)
	if err != nil {
		t.Fatalf("LoadJobs() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(loaded))
	}
	assertJobsEqual(t, loaded[0], want)

	// Saving the reloaded record again must not change it.
	if err := db.SaveJob(ctx, loaded[0]); err != nil {
		t.Fatal(err)
	}
	again, _ := db.LoadJobs(ctx)
	assertJobsEqual(t, again[0], want)
}

func TestRoundTripMinimalJob(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	now := time.Now()
	want := &jobs.Job{
		ID:        "queued-1",
		Input:     "in.mp4",
		Type:      jobs.TypeThumbnail,
		Status:    jobs.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.SaveJob(ctx, want); err != nil {
		t.Fatal(err)
	}

	loaded, err := db.LoadJobs(ctx)
	if err != nil || len(loaded) != 1 {
		t.Fatalf("LoadJobs() = %v, %v", loaded, err)
	}
	got := loaded[0]
	if got.OutputReference != nil || got.Detail != nil || got.StartedAt != nil || got.Metadata != nil {
		t.Errorf("Expected nullable fields to stay nil, got %+v", got)
	}
	assertJobsEqual(t, got, want)
}

func TestSaveJobUpserts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	job := sampleJob()
	job.Status = jobs.StatusProcessing
	job.Progress = 40
	job.OutputReference = nil
	if err := db.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	job.Progress = 80
	if err := db.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	loaded, _ := db.LoadJobs(ctx)
	if len(loaded) != 1 {
		t.Fatalf("Expected a single row, got %d", len(loaded))
	}
	if loaded[0].Progress != 80 {
		t.Errorf("Expected progress 80, got %d", loaded[0].Progress)
	}
}

func TestDeleteJob(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SaveJob(ctx, sampleJob()); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteJob(ctx, "abc"); err != nil {
		t.Fatalf("DeleteJob() error = %v", err)
	}
	if err := db.DeleteJob(ctx, "abc"); err != nil {
		t.Errorf("deleting a missing job should succeed, got %v", err)
	}

	loaded, _ := db.LoadJobs(ctx)
	if len(loaded) != 0 {
		t.Errorf("Expected no jobs, got %d", len(loaded))
	}
}

func TestLoadJobsOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"c", "a", "b"} {
		ts := base.Add(time.Duration(i) * time.Second)
		if err := db.SaveJob(ctx, &jobs.Job{ID: id, Input: "x", Type: jobs.TypeTranscode, Status: jobs.StatusQueued, CreatedAt: ts, UpdatedAt: ts}); err != nil {
			t.Fatal(err)
		}
	}

	loaded, _ := db.LoadJobs(ctx)
	var ids []string
	for _, j := range loaded {
		ids = append(ids, j.ID)
	}
	if strings.Join(ids, ",") != "c,a,b" {
		t.Errorf("Expected creation order c,a,b, got %v", ids)
	}
}

func TestStoreRecoversFromDatabase(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	running := sampleJob()
	running.ID = "running"
	running.Status = jobs.StatusProcessing
	running.Progress = 42
	running.OutputReference = nil
	if err := db.SaveJob(ctx, running); err != nil {
		t.Fatal(err)
	}

	store := jobs.NewStore(db)
	if _, err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	loaded, _ := db.LoadJobs(ctx)
	if loaded[0].Status != jobs.StatusError || *loaded[0].Detail != jobs.RestartDetail {
		t.Errorf("Expected persisted recovery, got %s %v", loaded[0].Status, loaded[0].Detail)
	}
}

func TestMigrationAddsWarningsColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = raw.Exec(`CREATE TABLE jobs (
		id TEXT PRIMARY KEY, input TEXT NOT NULL, type TEXT NOT NULL, status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0, output_reference TEXT, output_path TEXT NOT NULL DEFAULT '',
		detail TEXT, input_size INTEGER NOT NULL DEFAULT 0, output_size INTEGER NOT NULL DEFAULT 0,
		compression_ratio REAL NOT NULL DEFAULT 0, bitrate TEXT NOT NULL DEFAULT '',
		preset TEXT NOT NULL DEFAULT '', thumbnails TEXT NOT NULL DEFAULT '[]', metadata TEXT,
		created_at INTEGER NOT NULL, started_at INTEGER, updated_at INTEGER NOT NULL)`)
	if err != nil {
		t.Fatal(err)
	}
	if err := raw.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("New() on old schema error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.SaveJob(context.Background(), sampleJob()); err != nil {
		t.Errorf("SaveJob() after migration error = %v", err)
	}
}

func TestName(t *testing.T) {
	db := setupTestDB(t)
	if db.Name() != "sqlite" {
		t.Errorf("Expected sqlite, got %q", db.Name())
	}
	db.UpdateDBMetrics()
}

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS jobs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("pragma_table_info").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	db, err := newWithDB(context.Background(), sqlDB, "mock.db")
	if err != nil {
		t.Fatalf("newWithDB() error = %v", err)
	}
	return db, mock
}

func TestInitializeFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sqlDB.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS jobs").WillReturnError(errors.New("database is locked"))

	if _, err := newWithDB(context.Background(), sqlDB, "mock.db"); err == nil {
		t.Fatal("Expected schema error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveJobExecError(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectExec("INSERT INTO jobs").WillReturnError(errors.New("disk I/O error"))

	err := db.SaveJob(context.Background(), sampleJob())
	if err == nil || !strings.Contains(err.Error(), "disk I/O error") {
		t.Errorf("Expected wrapped exec error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDeleteJobExecError(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectExec("DELETE FROM jobs").WithArgs("abc").WillReturnError(errors.New("readonly database"))

	if err := db.DeleteJob(context.Background(), "abc"); err == nil {
		t.Error("Expected delete error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

var jobColumns = []string{
	"id", "input", "type", "status", "progress", "output_reference", "output_path", "detail",
	"input_size", "output_size", "compression_ratio", "bitrate", "preset",
	"warnings", "thumbnails", "metadata", "created_at", "started_at", "updated_at",
}

func TestLoadJobsCorruptJSON(t *testing.T) {
	db, mock := newMockDatabase(t)

	rows := sqlmock.NewRows(jobColumns).AddRow(
		"abc", "in.mp4", "transcode", "queued", 0, nil, "", nil,
		0, 0, 0.0, "", "",
		"{broken", "[]", nil, time.Now().UnixNano(), nil, time.Now().UnixNano(),
	)
	mock.ExpectQuery("SELECT id, input").WillReturnRows(rows)

	_, err := db.LoadJobs(context.Background())
	if err == nil || !strings.Contains(err.Error(), "warnings") {
		t.Errorf("Expected warnings decode error, got %v", err)
	}
}

func TestLoadJobsQueryError(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectQuery("SELECT id, input").WillReturnError(errors.New("no such table: jobs"))

	if _, err := db.LoadJobs(context.Background()); err == nil {
		t.Error("Expected query error")
	}
}
