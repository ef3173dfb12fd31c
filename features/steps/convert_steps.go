//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/cwygoda/audiograb/internal/adapter/storage"
	"github.com/cwygoda/audiograb/internal/domain"
)

// fakeExtractor writes a canned file into the output dir.
type fakeExtractor struct {
	calls    int
	fileName string
	sourceID string
	title    string
	fail     bool
}

func (f *fakeExtractor) Extract(ctx context.Context, url string, opts domain.ExtractOptions) (*domain.ExtractionResult, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("yt-dlp failed: exit status 1")
	}
	if f.fileName != "" {
		if err := os.WriteFile(filepath.Join(opts.OutputDir, f.fileName), []byte("audio"), 0644); err != nil {
			return nil, err
		}
	}
	return &domain.ExtractionResult{SourceID: f.sourceID, Title: f.title}, nil
}

type fakeUploader struct {
	base string
	fail bool
}

func (f *fakeUploader) Upload(ctx context.Context, path string) (*domain.UploadResult, error) {
	if f.fail {
		return nil, fmt.Errorf("%w: storage unavailable", domain.ErrPublish)
	}
	return &domain.UploadResult{PublicURL: f.base + "/" + storage.ObjectKey(path)}, nil
}

type fakeRecorder struct {
	records []domain.DownloadRecord
	fail    bool
}

func (f *fakeRecorder) Record(ctx context.Context, rec domain.DownloadRecord) error {
	if f.fail {
		return errors.New("database is locked")
	}
	f.records = append(f.records, rec)
	return nil
}

// convertContext holds test state for conversion scenarios
type convertContext struct {
	outputDir string
	extractor *fakeExtractor
	uploader  *fakeUploader
	recorder  *fakeRecorder
	result    *domain.Result
	err       error
}

func InitializeConvertScenario(ctx *godog.ScenarioContext) {
	var c *convertContext

	ctx.Before(func(goCtx context.Context, sc *godog.Scenario) (context.Context, error) {
		c = &convertContext{extractor: &fakeExtractor{}}
		return goCtx, nil
	})

	ctx.After(func(goCtx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if c.outputDir != "" {
			os.RemoveAll(c.outputDir)
		}
		return goCtx, nil
	})

	ctx.Step(`^an empty output directory$`, func() error {
		dir, err := os.MkdirTemp("", "audiograb-features-*")
		if err != nil {
			return err
		}
		c.outputDir = dir
		return nil
	})

	ctx.Step(`^the extractor produces "([^"]*)" for video "([^"]*)" titled "([^"]*)"$`, func(name, id, title string) error {
		c.extractor.fileName = name
		c.extractor.sourceID = id
		c.extractor.title = title
		return nil
	})

	ctx.Step(`^the extractor produces nothing for video "([^"]*)" titled "([^"]*)"$`, func(id, title string) error {
		c.extractor.sourceID = id
		c.extractor.title = title
		return nil
	})

	ctx.Step(`^the extractor fails$`, func() error {
		c.extractor.fail = true
		return nil
	})

	ctx.Step(`^storage is available at "([^"]*)"$`, func(base string) error {
		c.uploader = &fakeUploader{base: base}
		return nil
	})

	ctx.Step(`^storage is unavailable$`, func() error {
		c.uploader = &fakeUploader{fail: true}
		return nil
	})

	ctx.Step(`^a recorder is configured$`, func() error {
		c.recorder = &fakeRecorder{}
		return nil
	})

	ctx.Step(`^the recorder is unavailable$`, func() error {
		c.recorder = &fakeRecorder{fail: true}
		return nil
	})

	ctx.Step(`^I convert "([^"]*)"$`, func(url string) error {
		opts := []domain.Option{domain.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
		if c.uploader != nil {
			opts = append(opts, domain.WithUploader(c.uploader))
		}
		if c.recorder != nil {
			opts = append(opts, domain.WithRecorder(c.recorder))
		}
		svc := domain.NewService(c.extractor, domain.Options{OutputDir: c.outputDir}, opts...)
		c.result, c.err = svc.Convert(context.Background(), domain.DownloadRequest{SourceURL: url})
		return nil
	})

	ctx.Step(`^the conversion succeeds$`, func() error {
		if c.err != nil {
			return fmt.Errorf("expected success, got: %v", c.err)
		}
		return nil
	})

	ctx.Step(`^the conversion fails with "([^"]*)"$`, func(msg string) error {
		if c.err == nil {
			return fmt.Errorf("expected failure, got result %+v", c.result)
		}
		if !strings.Contains(c.err.Error(), msg) {
			return fmt.Errorf("expected error containing %q, got: %v", msg, c.err)
		}
		return nil
	})

	ctx.Step(`^the extractor was called (\d+) times$`, func(n int) error {
		if c.extractor.calls != n {
			return fmt.Errorf("expected %d extractor calls, got %d", n, c.extractor.calls)
		}
		return nil
	})

	ctx.Step(`^the result file is "([^"]*)"$`, func(name string) error {
		want := filepath.Join(c.outputDir, name)
		if c.result.FilePath != want {
			return fmt.Errorf("expected file %q, got %q", want, c.result.FilePath)
		}
		return nil
	})

	ctx.Step(`^the public URL is "([^"]*)"$`, func(url string) error {
		if c.result.PublicURL == nil || *c.result.PublicURL != url {
			return fmt.Errorf("expected public URL %q, got %v", url, c.result.PublicURL)
		}
		return nil
	})

	ctx.Step(`^the result has no public URL$`, func() error {
		if c.result.PublicURL != nil {
			return fmt.Errorf("expected no public URL, got %q", *c.result.PublicURL)
		}
		return nil
	})

	ctx.Step(`^the result is not recorded$`, func() error {
		if c.result.Recorded {
			return fmt.Errorf("expected Recorded = false")
		}
		return nil
	})

	ctx.Step(`^(\d+) downloads? (?:is|are) recorded$`, func(n int) error {
		if got := len(c.recorder.records); got != n {
			return fmt.Errorf("expected %d records, got %d", n, got)
		}
		return nil
	})

	ctx.Step(`^(\d+) downloads? (?:is|are) recorded (with|without) a public URL$`, func(n int, which string) error {
		if got := len(c.recorder.records); got != n {
			return fmt.Errorf("expected %d records, got %d", n, got)
		}
		for _, rec := range c.recorder.records {
			if (rec.PublicURL != nil) != (which == "with") {
				return fmt.Errorf("record %+v: expected %s a public URL", rec, which)
			}
		}
		return nil
	})
}
