// Package firestore records downloads as Firestore documents.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/cwygoda/audiograb/internal/domain"
)

// DefaultCollection holds download documents.
const DefaultCollection = "downloads"

// document mirrors the sqlite downloads row.
type document struct {
	VideoID         string    `firestore:"video_id"`
	Title           string    `firestore:"title"`
	FilePath        string    `firestore:"file_path"`
	PublicURL       *string   `firestore:"public_url"`
	DurationSeconds *float64  `firestore:"duration_seconds"`
	DownloadedAt    time.Time `firestore:"downloaded_at"`
}

// Recorder implements domain.Recorder and domain.HistoryReader on Firestore.
// Documents get auto IDs, so DownloadRecord.ID is always zero on read.
type Recorder struct {
	client     *firestore.Client
	collection string
}

// New creates a Firestore client for projectID and a Recorder writing to
// collection.
func New(ctx context.Context, projectID, collection string) (*Recorder, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return NewWithClient(client, collection), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *firestore.Client, collection string) *Recorder {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Recorder{client: client, collection: collection}
}

// Record adds one document.
func (r *Recorder) Record(ctx context.Context, rec domain.DownloadRecord) error {
	at := rec.DownloadedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, _, err := r.client.Collection(r.collection).Add(ctx, document{
		VideoID:         rec.SourceID,
		Title:           rec.Title,
		FilePath:        rec.LocalFilePath,
		PublicURL:       rec.PublicURL,
		DurationSeconds: rec.DurationSeconds,
		DownloadedAt:    at,
	})
	if err != nil {
		return fmt.Errorf("failed to add download document: %w", err)
	}
	return nil
}

// History returns up to limit records, newest first.
func (r *Recorder) History(ctx context.Context, limit int) ([]domain.DownloadRecord, error) {
	q := r.client.Collection(r.collection).OrderBy("downloaded_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	var records []domain.DownloadRecord
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list downloads: %w", err)
		}

		var doc document
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
		}
		records = append(records, domain.DownloadRecord{
			SourceID:        doc.VideoID,
			Title:           doc.Title,
			LocalFilePath:   doc.FilePath,
			PublicURL:       doc.PublicURL,
			DurationSeconds: doc.DurationSeconds,
			DownloadedAt:    doc.DownloadedAt,
		})
	}
	return records, nil
}

// Close releases the client.
func (r *Recorder) Close() error {
	return r.client.Close()
}
