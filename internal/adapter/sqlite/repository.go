package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/cwygoda/audiograb/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id         TEXT NOT NULL,
    title            TEXT NOT NULL,
    file_path        TEXT NOT NULL,
    public_url       TEXT,
    duration_seconds REAL,
    downloaded_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downloads_downloaded_at ON downloads(downloaded_at);
`

// DefaultHistoryLimit caps History when the caller passes a non-positive limit.
const DefaultHistoryLimit = 50

// Repository implements domain.Recorder and domain.HistoryReader using SQLite.
// Rows are append-only; the same video may be recorded more than once.
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository, initializing the schema if needed.
func New(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Record inserts one provenance row.
func (r *Repository) Record(ctx context.Context, rec domain.DownloadRecord) error {
	at := rec.DownloadedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO downloads (video_id, title, file_path, public_url, duration_seconds, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SourceID, rec.Title, rec.LocalFilePath,
		nullString(rec.PublicURL), nullFloat(rec.DurationSeconds), at,
	)
	return err
}

// History returns up to limit records, newest first.
func (r *Repository) History(ctx context.Context, limit int) ([]domain.DownloadRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, video_id, title, file_path, public_url, duration_seconds, downloaded_at
		 FROM downloads ORDER BY downloaded_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.DownloadRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.DownloadRecord, error) {
	var rec domain.DownloadRecord
	var publicURL sql.NullString
	var duration sql.NullFloat64
	if err := row.Scan(&rec.ID, &rec.SourceID, &rec.Title, &rec.LocalFilePath, &publicURL, &duration, &rec.DownloadedAt); err != nil {
		return nil, err
	}
	if publicURL.Valid {
		rec.PublicURL = &publicURL.String
	}
	if duration.Valid {
		rec.DurationSeconds = &duration.Float64
	}
	return &rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
