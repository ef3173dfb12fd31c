package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwygoda/audiograb/internal/domain"
)

func setupTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cleanup := func() {
		repo.Close()
		os.Remove(dbPath)
	}
	return repo, cleanup
}

func ptr[T any](v T) *T { return &v }

func TestRepository_Record(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := repo.Record(ctx, domain.DownloadRecord{
		SourceID:        "dQw4w9WgXcQ",
		Title:           "Never Gonna Give You Up",
		LocalFilePath:   "downloads/Never Gonna Give You Up.mp3",
		PublicURL:       ptr("https://example.com/a.mp3"),
		DurationSeconds: ptr(212.5),
		DownloadedAt:    at,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	records, err := repo.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("History() returned %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.ID == 0 {
		t.Error("record ID = 0, want non-zero")
	}
	if rec.SourceID != "dQw4w9WgXcQ" || rec.Title != "Never Gonna Give You Up" {
		t.Errorf("record = %+v", rec)
	}
	if rec.LocalFilePath != "downloads/Never Gonna Give You Up.mp3" {
		t.Errorf("LocalFilePath = %q", rec.LocalFilePath)
	}
	if rec.PublicURL == nil || *rec.PublicURL != "https://example.com/a.mp3" {
		t.Errorf("PublicURL = %v", rec.PublicURL)
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 212.5 {
		t.Errorf("DurationSeconds = %v", rec.DurationSeconds)
	}
	if !rec.DownloadedAt.Equal(at) {
		t.Errorf("DownloadedAt = %v, want %v", rec.DownloadedAt, at)
	}
}

func TestRepository_Record_NullColumns(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	err := repo.Record(ctx, domain.DownloadRecord{
		SourceID:      "abc",
		Title:         "t",
		LocalFilePath: "downloads/t.mp3",
		DownloadedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	records, err := repo.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("History() returned %d records, want 1", len(records))
	}
	if records[0].PublicURL != nil {
		t.Errorf("PublicURL = %q, want nil", *records[0].PublicURL)
	}
	if records[0].DurationSeconds != nil {
		t.Errorf("DurationSeconds = %v, want nil", *records[0].DurationSeconds)
	}
}

func TestRepository_Record_Duplicates(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	rec := domain.DownloadRecord{
		SourceID:      "abc",
		Title:         "t",
		LocalFilePath: "downloads/t.mp3",
		DownloadedAt:  time.Now().UTC(),
	}

	for i := 0; i < 2; i++ {
		if err := repo.Record(ctx, rec); err != nil {
			t.Fatalf("Record() #%d error = %v", i, err)
		}
	}

	records, err := repo.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("History() returned %d records, want 2", len(records))
	}
	if records[0].ID == records[1].ID {
		t.Error("duplicate records share an ID")
	}
}

func TestRepository_History(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of order
	for _, n := range []int{2, 0, 3, 1} {
		err := repo.Record(ctx, domain.DownloadRecord{
			SourceID:      string(rune('a' + n)),
			Title:         "t",
			LocalFilePath: "f.mp3",
			DownloadedAt:  base.Add(time.Duration(n) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	records, err := repo.History(ctx, 3)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("History() returned %d records, want 3", len(records))
	}

	want := []string{"d", "c", "b"}
	for i, rec := range records {
		if rec.SourceID != want[i] {
			t.Errorf("records[%d].SourceID = %q, want %q", i, rec.SourceID, want[i])
		}
	}
}

func TestRepository_History_Empty(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	records, err := repo.History(context.Background(), 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("History() returned %d records, want 0", len(records))
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "nested", "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer repo.Close()

	// Verify directory was created
	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("New() did not create parent directory")
	}
}

func TestNew_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := repo.Record(ctx, domain.DownloadRecord{SourceID: "a", Title: "t", LocalFilePath: "f", DownloadedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	repo.Close()

	repo, err = New(dbPath)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer repo.Close()

	records, err := repo.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("History() after reopen returned %d records, want 1", len(records))
	}
}
