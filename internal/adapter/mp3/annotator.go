// Package mp3 tags converted MP3 files and probes their duration.
package mp3

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bogem/id3v2/v2"
	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/cwygoda/audiograb/internal/domain"
)

// go-mp3 always decodes to 16-bit stereo PCM.
const bytesPerFrame = 4

// Annotator implements domain.Annotator.
type Annotator struct{}

// New creates an Annotator.
func New() *Annotator {
	return &Annotator{}
}

// Annotate writes the title and source tags into path and returns the audio
// duration. A failed probe does not prevent tagging; both errors are joined.
func (a *Annotator) Annotate(ctx context.Context, path string, meta domain.AudioMeta) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// Probe before tagging; Save rewrites the file.
	d, probeErr := Duration(path)
	if probeErr != nil {
		probeErr = fmt.Errorf("probe duration: %w", probeErr)
	}

	tagErr := writeTags(path, meta)
	if tagErr != nil {
		tagErr = fmt.Errorf("write tags: %w", tagErr)
	}

	return d, errors.Join(probeErr, tagErr)
}

// Duration decodes the MP3 stream headers and returns its playing time.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}

	length := dec.Length()
	rate := dec.SampleRate()
	if length <= 0 || rate <= 0 {
		return 0, fmt.Errorf("unknown length")
	}

	samples := length / bytesPerFrame
	return time.Duration(samples) * time.Second / time.Duration(rate), nil
}

func writeTags(path string, meta domain.AudioMeta) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if meta.Title != "" {
		tag.SetTitle(meta.Title)
	}
	if meta.SourceURL != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "source",
			Text:        meta.SourceURL,
		})
	}
	if meta.SourceID != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "youtube_id",
			Value:       meta.SourceID,
		})
	}

	return tag.Save()
}
