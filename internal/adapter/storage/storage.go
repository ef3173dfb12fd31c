// Package storage publishes audio files to object storage.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/cwygoda/audiograb/internal/domain"
)

// ObjectKey derives the flat object key for a local file.
func ObjectKey(path string) string {
	return domain.SanitizeFilename(filepath.Base(path))
}

func joinURL(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
