package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cwygoda/audiograb/internal/domain"
)

// fakePrompter replays canned answers, then returns io.EOF.
type fakePrompter struct {
	answers  []string
	messages []string
}

func (f *fakePrompter) Input(message string) (string, error) {
	f.messages = append(f.messages, message)
	if len(f.answers) == 0 {
		return "", io.EOF
	}
	a := f.answers[0]
	f.answers = f.answers[1:]
	return a, nil
}

type fakeConverter struct {
	urls []string
	fail map[string]bool
}

func (f *fakeConverter) ConvertWithProgress(ctx context.Context, req domain.DownloadRequest, progress func(float64)) (*domain.Result, error) {
	f.urls = append(f.urls, req.SourceURL)
	if progress != nil {
		progress(50)
		progress(100)
	}
	if f.fail[req.SourceURL] {
		return nil, &domain.StageError{Stage: domain.StageExtracting, Kind: domain.ErrExtraction}
	}
	return &domain.Result{FilePath: "downloads/song.mp3"}, nil
}

const (
	goodURL = "https://www.youtube.com/watch?v=abc123"
	badURL  = "https://youtu.be/fails"
)

func TestConsole_Loop(t *testing.T) {
	conv := &fakeConverter{fail: map[string]bool{badURL: true}}
	prompter := &fakePrompter{answers: []string{"not a url", goodURL, badURL, "Q", goodURL}}
	var out bytes.Buffer

	if err := New(conv, prompter, &out).Loop(context.Background()); err != nil {
		t.Fatalf("Loop() error = %v", err)
	}

	if len(conv.urls) != 2 || conv.urls[0] != goodURL || conv.urls[1] != badURL {
		t.Errorf("converted = %q, want [%s %s]", conv.urls, goodURL, badURL)
	}
	if len(prompter.messages) != 4 {
		t.Errorf("prompted %d times, want 4", len(prompter.messages))
	}
	if prompter.messages[0] != "Enter YouTube URL (or 'q' to quit):" {
		t.Errorf("prompt = %q", prompter.messages[0])
	}

	text := out.String()
	for _, want := range []string{
		"Error: Invalid YouTube URL",
		"Success! File saved as: downloads/song.mp3",
		"Ready for next download!",
		"Download failed. Please try again.",
		"Goodbye!",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if n := strings.Count(text, separator); n != 2 {
		t.Errorf("separators = %d, want 2", n)
	}
}

func TestConsole_Loop_EOF(t *testing.T) {
	conv := &fakeConverter{}
	var out bytes.Buffer

	if err := New(conv, &fakePrompter{}, &out).Loop(context.Background()); err != nil {
		t.Fatalf("Loop() error = %v", err)
	}
	if len(conv.urls) != 0 {
		t.Errorf("converted %d urls, want 0", len(conv.urls))
	}
}

func TestConsole_Loop_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(&fakeConverter{}, &fakePrompter{answers: []string{goodURL}}, io.Discard).Loop(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Loop() error = %v, want context.Canceled", err)
	}
}

func TestConsole_Once(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"success", goodURL, nil},
		{"invalid", "https://example.com", ErrInvalidURL},
		{"failed", badURL, ErrFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{fail: map[string]bool{badURL: true}}
			err := New(conv, nil, io.Discard).Once(context.Background(), tt.url)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Once() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == ErrInvalidURL && len(conv.urls) != 0 {
				t.Error("converter called for invalid url")
			}
		})
	}
}

func TestConsole_Progress(t *testing.T) {
	var out bytes.Buffer
	if err := New(&fakeConverter{}, nil, &out, WithProgress(true)).Once(context.Background(), goodURL); err != nil {
		t.Fatalf("Once() error = %v", err)
	}
	if !strings.Contains(out.String(), "Downloading: 100.0%") {
		t.Errorf("output missing progress:\n%s", out.String())
	}
}

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("first\r\nsecond"), &out)

	for _, want := range []string{"first", "second"} {
		got, err := p.Input("URL:")
		if err != nil {
			t.Fatalf("Input() error = %v", err)
		}
		if got != want {
			t.Errorf("Input() = %q, want %q", got, want)
		}
	}

	if _, err := p.Input("URL:"); !errors.Is(err, io.EOF) {
		t.Errorf("Input() at end error = %v, want io.EOF", err)
	}
	if strings.Count(out.String(), "URL: ") != 3 {
		t.Errorf("prompt output = %q", out.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("IsTerminal(buffer) = true, want false")
	}
}
