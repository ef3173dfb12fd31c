package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	firestoreAdapter "github.com/cwygoda/audiograb/internal/adapter/firestore"
	"github.com/cwygoda/audiograb/internal/adapter/mp3"
	"github.com/cwygoda/audiograb/internal/adapter/sqlite"
	"github.com/cwygoda/audiograb/internal/adapter/storage"
	"github.com/cwygoda/audiograb/internal/adapter/youtube"
	"github.com/cwygoda/audiograb/internal/config"
	"github.com/cwygoda/audiograb/internal/domain"
)

// app owns the service and the collaborators that need closing.
type app struct {
	svc     *domain.Service
	closers []io.Closer
}

// buildApp wires the configured adapters into a Service.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	extractor := youtube.New(
		youtube.WithExecutable(cfg.Extract.Executable),
		youtube.WithRetryPolicy(youtube.RetryPolicy{
			Retries:           cfg.Extract.Retries,
			FragmentRetries:   cfg.Extract.FragmentRetries,
			ExtractorRetries:  cfg.Extract.ExtractorRetries,
			FileAccessRetries: cfg.Extract.FileAccessRetries,
			Sleep:             cfg.Extract.RetrySleep,
		}),
	)

	opts := []domain.Option{
		domain.WithLogger(logger),
		domain.WithTimeouts(domain.Timeouts{
			Extract: cfg.Pipeline.ExtractTimeout.Duration,
			Upload:  cfg.Pipeline.UploadTimeout.Duration,
			Record:  cfg.Pipeline.RecordTimeout.Duration,
		}),
	}

	uploader, err := a.newUploader(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}
	if uploader != nil {
		opts = append(opts, domain.WithUploader(uploader))
	}

	recorder, err := a.newRecorder(ctx, cfg.Recorder)
	if err != nil {
		a.Close()
		return nil, err
	}
	if recorder != nil {
		opts = append(opts, domain.WithRecorder(recorder))
	}

	// ID3 tags only apply to MP3 output.
	if cfg.Pipeline.Annotate && cfg.Extract.AudioFormat == domain.DefaultAudioFormat {
		opts = append(opts, domain.WithAnnotator(mp3.New()))
	}

	a.svc = domain.NewService(extractor, domain.Options{
		OutputDir:   cfg.OutputDir,
		AudioFormat: cfg.Extract.AudioFormat,
		Bitrate:     cfg.Extract.Bitrate,
		Naming:      domain.Naming(cfg.Extract.Naming),
	}, opts...)

	logger.Debug("pipeline configured",
		"output_dir", cfg.OutputDir,
		"storage", backendName(cfg.Storage.Backend),
		"recorder", backendName(cfg.Recorder.Backend),
		"annotate", cfg.Pipeline.Annotate,
	)
	return a, nil
}

func (a *app) newUploader(ctx context.Context, cfg config.StorageConfig) (domain.Uploader, error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		return storage.NewSupabase(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket), nil
	case config.BackendGCS:
		g, err := storage.NewGCS(ctx, cfg.GCS.Bucket, cfg.GCS.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g)
		return g, nil
	case config.BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func (a *app) newRecorder(ctx context.Context, cfg config.RecorderConfig) (domain.Recorder, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		repo, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.closers = append(a.closers, repo)
		return repo, nil
	case config.BackendFirestore:
		rec, err := firestoreAdapter.New(ctx, cfg.FirestoreProject, cfg.FirestoreCollection)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rec)
		return rec, nil
	case config.BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown recorder backend %q", cfg.Backend)
	}
}

// Close releases collaborators in reverse order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func backendName(b string) string {
	if b == "" {
		return "none"
	}
	return b
}
