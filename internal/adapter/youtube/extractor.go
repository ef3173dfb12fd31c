// Package youtube extracts and transcodes audio with yt-dlp.
package youtube

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"

	"github.com/cwygoda/audiograb/internal/domain"
)

// Output templates per naming mode.
const (
	titleTemplate = "%(title)s.%(ext)s"
	idTemplate    = "%(id)s.%(ext)s"
)

const progressInterval = 500 * time.Millisecond

// RetryPolicy is yt-dlp's retry budget per failure class, plus a fixed sleep
// between attempts.
type RetryPolicy struct {
	Retries           int
	FragmentRetries   int
	ExtractorRetries  int
	FileAccessRetries int
	Sleep             string
}

// DefaultRetryPolicy retries every class 10 times, one second apart.
var DefaultRetryPolicy = RetryPolicy{
	Retries:           10,
	FragmentRetries:   10,
	ExtractorRetries:  10,
	FileAccessRetries: 10,
	Sleep:             "1",
}

// info is the part of yt-dlp's info JSON the extractor needs.
type info struct {
	ID       string
	Title    string
	Filename string
}

// runFunc runs one download into workDir.
type runFunc func(ctx context.Context, workDir, url string, opts domain.ExtractOptions) (*info, error)

// Extractor implements domain.Extractor. Each run downloads into its own
// temp directory so partial and raw files never reach the output directory.
type Extractor struct {
	executable string
	retries    RetryPolicy
	tempDir    string
	run        runFunc
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithExecutable sets the yt-dlp binary path.
func WithExecutable(path string) Option {
	return func(e *Extractor) { e.executable = path }
}

// WithRetryPolicy sets the retry budget.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Extractor) { e.retries = p }
}

// WithTempDir sets the parent directory for per-run work dirs.
func WithTempDir(dir string) Option {
	return func(e *Extractor) { e.tempDir = dir }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{retries: DefaultRetryPolicy}
	e.run = e.runYtdlp
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract downloads the best audio of url, transcodes it and moves the
// resulting audio file into opts.OutputDir.
func (e *Extractor) Extract(ctx context.Context, url string, opts domain.ExtractOptions) (*domain.ExtractionResult, error) {
	if opts.AudioFormat == "" {
		opts.AudioFormat = domain.DefaultAudioFormat
	}

	workDir, err := os.MkdirTemp(e.tempDir, fmt.Sprintf("audiograb-%s-*", uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inf, err := e.run(ctx, workDir, url, opts)
	if err != nil {
		return nil, err
	}

	moved, err := moveAudio(workDir, opts.OutputDir, "."+opts.AudioFormat)
	if err != nil {
		return nil, fmt.Errorf("move files: %w", err)
	}

	title := inf.Title
	if title == "" && inf.ID != "" {
		title = "youtube_audio_" + inf.ID
	}

	return &domain.ExtractionResult{
		SourceID:      inf.ID,
		Title:         title,
		LocalFilePath: pickReported(moved, inf.Filename, "."+opts.AudioFormat),
	}, nil
}

func (e *Extractor) runYtdlp(ctx context.Context, workDir, url string, opts domain.ExtractOptions) (*info, error) {
	template := titleTemplate
	if opts.Naming == domain.NameByID {
		template = idTemplate
	}

	dl := ytdlp.New().
		NoPlaylist().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(opts.AudioFormat).
		AudioQuality(opts.Bitrate).
		Retries(strconv.Itoa(e.retries.Retries)).
		FragmentRetries(strconv.Itoa(e.retries.FragmentRetries)).
		ExtractorRetries(strconv.Itoa(e.retries.ExtractorRetries)).
		FileAccessRetries(strconv.Itoa(e.retries.FileAccessRetries)).
		PrintJSON().
		Output(filepath.Join(workDir, template))
	if e.retries.Sleep != "" {
		dl = dl.RetrySleep(e.retries.Sleep)
	}
	if e.executable != "" {
		dl = dl.SetExecutable(e.executable)
	}
	if opts.Progress != nil {
		dl = dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes > 0 {
				opts.Progress(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
			}
		})
	}

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	extracted, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	if len(extracted) == 0 {
		return nil, fmt.Errorf("yt-dlp reported no video")
	}

	first := extracted[0]
	inf := &info{ID: first.ID}
	if first.Title != nil {
		inf.Title = *first.Title
	}
	if first.Filename != nil {
		inf.Filename = *first.Filename
	}
	return inf, nil
}

// moveAudio moves files with extension ext from srcDir into dstDir and returns
// their new paths. Other files, like the raw download, stay behind.
func moveAudio(srcDir, dstDir, ext string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return nil, err
	}

	var moved []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())

		if err := os.Rename(src, dst); err != nil {
			// Cross-device fallback
			if err := copyFile(src, dst); err != nil {
				return nil, err
			}
			os.Remove(src)
		}
		moved = append(moved, dst)
	}
	return moved, nil
}

// pickReported chooses which moved file to report. yt-dlp's filename points
// at the pre-conversion container, so only its stem is compared.
func pickReported(moved []string, filename, ext string) string {
	if filename != "" {
		stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		for _, p := range moved {
			if filepath.Base(p) == stem+ext {
				return p
			}
		}
	}
	if len(moved) == 1 {
		return moved[0]
	}
	return ""
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
