package domain

import (
	"context"
	"time"
)

// Extractor is the driven port that resolves a URL to a local audio file.
type Extractor interface {
	Extract(ctx context.Context, url string, opts ExtractOptions) (*ExtractionResult, error)
}

// Uploader is the driven port for object storage. A nil result with a nil
// error means the file was not published.
type Uploader interface {
	Upload(ctx context.Context, path string) (*UploadResult, error)
}

// Recorder is the driven port for provenance persistence.
type Recorder interface {
	Record(ctx context.Context, rec DownloadRecord) error
}

// HistoryReader is implemented by recorders that can list past downloads.
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]DownloadRecord, error)
}

// Annotator writes tags into a located audio file and reports its duration.
type Annotator interface {
	Annotate(ctx context.Context, path string, meta AudioMeta) (time.Duration, error)
}
