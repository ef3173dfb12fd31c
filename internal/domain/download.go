package domain

import "time"

// Naming selects how the extractor names its output file.
type Naming string

const (
	NameByTitle Naming = "title"
	NameByID    Naming = "id"
)

// DefaultBitrate is the target MP3 bitrate passed to the extractor.
const DefaultBitrate = "192K"

// DefaultAudioFormat is the compressed audio format requested from the extractor.
const DefaultAudioFormat = "mp3"

// AudioContentType is the MIME type used when publishing audio.
const AudioContentType = "audio/mpeg"

// DownloadRequest is a single conversion request.
type DownloadRequest struct {
	SourceURL string
}

// ExtractOptions configures one extraction.
type ExtractOptions struct {
	OutputDir   string
	AudioFormat string
	Bitrate     string
	Naming      Naming
	// Progress, if set, receives best-effort download progress in [0, 100].
	Progress func(percent float64)
}

// ExtractionResult is what the extractor reports after a successful run.
// LocalFilePath is a hint; the file may live under a different name.
type ExtractionResult struct {
	SourceID      string
	Title         string
	LocalFilePath string
}

// UploadResult holds the public location of a published file.
type UploadResult struct {
	PublicURL string
}

// DownloadRecord is the persisted provenance row for a completed download.
type DownloadRecord struct {
	ID              int64
	SourceID        string
	Title           string
	LocalFilePath   string
	PublicURL       *string
	DurationSeconds *float64
	DownloadedAt    time.Time
}

// AudioMeta is written into the audio file's tags.
type AudioMeta struct {
	Title     string
	SourceID  string
	SourceURL string
}

// Result is the outcome of a successful conversion. PublicURL is nil when
// no uploader is configured or the upload failed.
type Result struct {
	SourceID  string
	Title     string
	FilePath  string
	PublicURL *string
	Duration  time.Duration
	Recorded  bool
}

// Published reports whether the file was uploaded.
func (r *Result) Published() bool {
	return r.PublicURL != nil && *r.PublicURL != ""
}
