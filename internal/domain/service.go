package domain

import (
	"context"
	"log/slog"
	"time"
)

// Timeouts are optional per-stage deadlines. Zero means no deadline.
type Timeouts struct {
	Extract time.Duration
	Upload  time.Duration
	Record  time.Duration
}

// Options configures what the service asks of the extractor.
type Options struct {
	OutputDir   string
	AudioFormat string
	Bitrate     string
	Naming      Naming
}

// Service runs the download, upload and record pipeline. It keeps no state
// between calls and is safe for concurrent use if its collaborators are.
type Service struct {
	extractor  Extractor
	uploader   Uploader
	recorder   Recorder
	annotator  Annotator
	opts       Options
	candidates []CandidateFunc
	timeouts   Timeouts
	logger     *slog.Logger
	now        func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithUploader enables the upload stage.
func WithUploader(u Uploader) Option {
	return func(s *Service) { s.uploader = u }
}

// WithRecorder enables the record stage.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithAnnotator enables tagging of located files.
func WithAnnotator(a Annotator) Option {
	return func(s *Service) { s.annotator = a }
}

// WithLogger sets the logger used for stage failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTimeouts sets per-stage deadlines.
func WithTimeouts(t Timeouts) Option {
	return func(s *Service) { s.timeouts = t }
}

// WithCandidates overrides the file probing order.
func WithCandidates(funcs ...CandidateFunc) Option {
	return func(s *Service) { s.candidates = funcs }
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service around the given extractor.
func NewService(extractor Extractor, opts Options, options ...Option) *Service {
	if opts.AudioFormat == "" {
		opts.AudioFormat = DefaultAudioFormat
	}
	if opts.Bitrate == "" {
		opts.Bitrate = DefaultBitrate
	}
	if opts.Naming == "" {
		opts.Naming = NameByTitle
	}
	s := &Service{
		extractor:  extractor,
		opts:       opts,
		candidates: DefaultCandidates,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// HasUploader reports whether the upload stage is enabled.
func (s *Service) HasUploader() bool {
	return s.uploader != nil
}

// History lists recorded downloads if the recorder supports it.
func (s *Service) History(ctx context.Context, limit int) ([]DownloadRecord, error) {
	h, ok := s.recorder.(HistoryReader)
	if !ok {
		return nil, ErrNotSupported
	}
	return h.History(ctx, limit)
}

// Convert validates the URL, extracts and transcodes its audio, locates the
// output file and then publishes and records it. Only validation, extraction
// and locating can fail the call; later stages degrade the result instead.
func (s *Service) Convert(ctx context.Context, req DownloadRequest) (*Result, error) {
	return s.ConvertWithProgress(ctx, req, nil)
}

// ConvertWithProgress is Convert with a best-effort progress callback.
func (s *Service) ConvertWithProgress(ctx context.Context, req DownloadRequest, progress func(float64)) (*Result, error) {
	log := s.logger.With("url", req.SourceURL)
	if id := RequestID(ctx); id != "" {
		log = log.With("request_id", id)
	}

	if !ValidateURL(req.SourceURL) {
		log.Warn("rejected url", "stage", StageValidating)
		return nil, &StageError{Stage: StageValidating, Kind: ErrInvalidInput}
	}

	log.Info("extracting audio", "format", s.opts.AudioFormat, "bitrate", s.opts.Bitrate)
	extracted, err := s.extract(ctx, req.SourceURL, progress)
	if err != nil {
		log.Error("extraction failed", "stage", StageExtracting, "error", err)
		return nil, &StageError{Stage: StageExtracting, Kind: ErrExtraction, Err: err}
	}
	if extracted.SourceID == "" {
		extracted.SourceID = SourceIDFromURL(req.SourceURL)
	}
	log = log.With("source_id", extracted.SourceID)

	candidates := Candidates(s.candidates, s.opts.OutputDir, "."+s.opts.AudioFormat, extracted)
	path, ok := Locate(candidates)
	if !ok {
		log.Error("no output file found", "stage", StageLocating, "candidates", candidates)
		return nil, &StageError{Stage: StageLocating, Kind: ErrFileNotFound, Candidates: candidates}
	}
	log = log.With("path", path)
	log.Info("located audio file", "title", extracted.Title)

	res := &Result{
		SourceID: extracted.SourceID,
		Title:    extracted.Title,
		FilePath: path,
	}

	if s.annotator != nil {
		meta := AudioMeta{Title: extracted.Title, SourceID: extracted.SourceID, SourceURL: req.SourceURL}
		d, err := s.annotator.Annotate(ctx, path, meta)
		if err != nil {
			log.Warn("annotate failed", "stage", StageAnnotating, "error", err)
		}
		res.Duration = d
	}

	if s.uploader != nil {
		res.PublicURL = s.upload(ctx, log, path)
	}

	if s.recorder != nil {
		res.Recorded = s.record(ctx, log, res)
	}

	log.Info("conversion complete", "published", res.Published(), "recorded", res.Recorded)
	return res, nil
}

func (s *Service) extract(ctx context.Context, url string, progress func(float64)) (*ExtractionResult, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Extract)
	defer cancel()
	return s.extractor.Extract(ctx, url, ExtractOptions{
		OutputDir:   s.opts.OutputDir,
		AudioFormat: s.opts.AudioFormat,
		Bitrate:     s.opts.Bitrate,
		Naming:      s.opts.Naming,
		Progress:    progress,
	})
}

func (s *Service) upload(ctx context.Context, log *slog.Logger, path string) *string {
	ctx, cancel := withTimeout(ctx, s.timeouts.Upload)
	defer cancel()

	up, err := s.uploader.Upload(ctx, path)
	if err != nil {
		log.Warn("upload failed", "stage", StageUploading, "error", err)
		return nil
	}
	if up == nil || up.PublicURL == "" {
		log.Warn("upload returned no public url", "stage", StageUploading)
		return nil
	}
	log.Info("uploaded audio file", "public_url", up.PublicURL)
	u := up.PublicURL
	return &u
}

func (s *Service) record(ctx context.Context, log *slog.Logger, res *Result) bool {
	ctx, cancel := withTimeout(ctx, s.timeouts.Record)
	defer cancel()

	rec := DownloadRecord{
		SourceID:      res.SourceID,
		Title:         res.Title,
		LocalFilePath: res.FilePath,
		PublicURL:     res.PublicURL,
		DownloadedAt:  s.now().UTC(),
	}
	if res.Duration > 0 {
		secs := res.Duration.Seconds()
		rec.DurationSeconds = &secs
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		log.Warn("record failed", "stage", StageRecording, "error", err)
		return false
	}
	return true
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
