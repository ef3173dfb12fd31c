package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/cwygoda/audiograb/internal/domain"
)

// DefaultGCSBaseURL serves public objects.
const DefaultGCSBaseURL = "https://storage.googleapis.com"

// GCS uploads to a Google Cloud Storage bucket.
type GCS struct {
	client     *gcs.Client
	bucket     string
	publicBase string
}

// NewGCS creates a GCS uploader. Credentials come from the environment
// unless opts say otherwise.
func NewGCS(ctx context.Context, bucket, publicBase string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket must be provided to create a GCS uploader")
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	if publicBase == "" {
		publicBase = DefaultGCSBaseURL
	}
	return &GCS{client: client, bucket: bucket, publicBase: publicBase}, nil
}

// Upload writes the file in a single request and returns its public URL.
func (g *GCS) Upload(ctx context.Context, path string) (*domain.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}
	defer f.Close()

	key := ObjectKey(path)
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = domain.AudioContentType
	w.ChunkSize = 0

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%w: write to GCS: %w", domain.ErrPublish, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalize GCS write: %w", domain.ErrPublish, err)
	}

	return &domain.UploadResult{PublicURL: g.PublicURL(key)}, nil
}

// PublicURL returns the public address of an object key.
func (g *GCS) PublicURL(key string) string {
	return joinURL(g.publicBase, g.bucket, url.PathEscape(key))
}

// Close releases the client.
func (g *GCS) Close() error {
	return g.client.Close()
}
