// Package console is the interactive and one-shot command line front end.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cwygoda/audiograb/internal/domain"
)

const (
	promptMessage = "Enter YouTube URL (or 'q' to quit):"
	separator     = "=================================================="
)

// ErrInvalidURL is returned by Once for a URL that fails validation.
var ErrInvalidURL = errors.New("invalid YouTube URL")

// ErrFailed is returned by Once when the conversion did not produce a file.
var ErrFailed = errors.New("download failed")

// Converter runs one conversion.
type Converter interface {
	ConvertWithProgress(ctx context.Context, req domain.DownloadRequest, progress func(float64)) (*domain.Result, error)
}

// Console drives a Converter from user input.
type Console struct {
	conv         Converter
	prompter     Prompter
	out          io.Writer
	showProgress bool
}

// Option configures a Console.
type Option func(*Console)

// WithProgress prints download progress on a single updating line.
func WithProgress(v bool) Option {
	return func(c *Console) { c.showProgress = v }
}

// New creates a Console writing to out.
func New(conv Converter, prompter Prompter, out io.Writer, opts ...Option) *Console {
	c := &Console{conv: conv, prompter: prompter, out: out}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Banner prints the program header.
func (c *Console) Banner() {
	fmt.Fprintln(c.out, "YouTube Audio Downloader")
	fmt.Fprintln(c.out, separator)
}

// Once converts a single URL.
func (c *Console) Once(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if !domain.ValidateURL(url) {
		fmt.Fprintln(c.out, "Error: Invalid YouTube URL")
		return ErrInvalidURL
	}
	if _, err := c.convert(ctx, url); err != nil {
		return ErrFailed
	}
	return nil
}

// Loop prompts for URLs until the user enters q, input ends or ctx is done.
func (c *Console) Loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintln(c.out)
		url, err := c.prompter.Input(promptMessage)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}
		if err != nil {
			return err
		}

		url = strings.TrimSpace(url)
		if strings.EqualFold(url, "q") {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}

		if !domain.ValidateURL(url) {
			fmt.Fprintln(c.out, "Error: Invalid YouTube URL")
			continue
		}

		if _, err := c.convert(ctx, url); err != nil {
			fmt.Fprintln(c.out, "\nDownload failed. Please try again.")
		} else {
			fmt.Fprintln(c.out, "\nReady for next download!")
		}
		fmt.Fprintln(c.out, separator)
	}
}

func (c *Console) convert(ctx context.Context, url string) (*domain.Result, error) {
	var progress func(float64)
	if c.showProgress {
		progress = func(p float64) {
			fmt.Fprintf(c.out, "\rDownloading: %5.1f%%", p)
		}
	}

	res, err := c.conv.ConvertWithProgress(ctx, domain.DownloadRequest{SourceURL: url}, progress)
	if c.showProgress {
		fmt.Fprintln(c.out)
	}
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(c.out, "\nSuccess! File saved as: %s\n", res.FilePath)
	if res.PublicURL != nil {
		fmt.Fprintf(c.out, "Public URL: %s\n", *res.PublicURL)
	}
	return res, nil
}
