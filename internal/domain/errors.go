package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid YouTube URL")
	ErrExtraction   = errors.New("failed to download and convert video")
	ErrFileNotFound = errors.New("converted file not found")
	ErrPublish      = errors.New("failed to publish file")
	ErrNotSupported = errors.New("operation not supported")
)

// Stage names a step of the conversion pipeline.
type Stage string

const (
	StageValidating Stage = "validating"
	StageExtracting Stage = "extracting"
	StageLocating   Stage = "locating"
	StageAnnotating Stage = "annotating"
	StageUploading  Stage = "uploading"
	StageRecording  Stage = "recording"
)

// StageError is returned by Service.Convert when a required stage fails.
// Kind is one of the sentinel errors above; Err is the underlying cause.
type StageError struct {
	Stage      Stage
	Kind       error
	Err        error
	Candidates []string
}

func (e *StageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Stage, e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, " (tried %s)", strings.Join(e.Candidates, ", "))
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsProcessingFailure reports whether err is a pipeline failure that
// happened after the input was accepted.
func IsProcessingFailure(err error) bool {
	return errors.Is(err, ErrExtraction) || errors.Is(err, ErrFileNotFound)
}
