package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/cwygoda/audiograb/internal/domain"
)

const cacheControl = "3600"

// Supabase uploads to a Supabase Storage bucket.
type Supabase struct {
	client *storage_go.Client
	bucket string
}

// NewSupabase creates a Supabase uploader for bucket. baseURL is the project
// URL, without the storage/v1 suffix.
func NewSupabase(baseURL, key, bucket string) *Supabase {
	return &Supabase{
		client: storage_go.NewClient(joinURL(baseURL, "storage/v1"), key, nil),
		bucket: bucket,
	}
}

// Upload posts the file and returns its public URL. The storage client does
// not take a context, so cancellation is only checked before the upload.
func (s *Supabase) Upload(ctx context.Context, path string) (*domain.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}
	defer f.Close()

	key := url.PathEscape(ObjectKey(path))
	contentType := domain.AudioContentType
	cache := cacheControl

	resp, err := s.client.UploadFile(s.bucket, key, f, storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cache,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: supabase upload: %w", domain.ErrPublish, err)
	}
	if resp.Key == "" {
		return nil, fmt.Errorf("%w: supabase returned no object key", domain.ErrPublish)
	}

	return &domain.UploadResult{
		PublicURL: s.client.GetPublicUrl(s.bucket, key).SignedURL,
	}, nil
}
