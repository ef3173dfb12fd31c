package domain

import (
	"os"
	"path/filepath"
	"strings"
)

// CandidateFunc derives one possible output path from an extraction result.
// It returns "" when it has nothing to suggest.
type CandidateFunc func(dir, ext string, res *ExtractionResult) string

// DefaultCandidates is the probing order used by the service. The extractor
// may rewrite characters in the title, so the name it reports is tried first,
// then progressively normalised title variants, then the video id.
var DefaultCandidates = []CandidateFunc{
	reportedPath,
	reportedPathWithExt,
	titlePath,
	underscoredTitlePath,
	sanitizedTitlePath,
	sourceIDPath,
}

func reportedPath(dir, ext string, res *ExtractionResult) string {
	return res.LocalFilePath
}

func reportedPathWithExt(dir, ext string, res *ExtractionResult) string {
	if res.LocalFilePath == "" {
		return ""
	}
	return strings.TrimSuffix(res.LocalFilePath, filepath.Ext(res.LocalFilePath)) + ext
}

func titlePath(dir, ext string, res *ExtractionResult) string {
	if res.Title == "" {
		return ""
	}
	return inDir(dir, res.Title+ext)
}

func underscoredTitlePath(dir, ext string, res *ExtractionResult) string {
	if res.Title == "" {
		return ""
	}
	return inDir(dir, strings.ReplaceAll(res.Title, " ", "_")+ext)
}

func sanitizedTitlePath(dir, ext string, res *ExtractionResult) string {
	name := SanitizeFilename(res.Title)
	if name == "" {
		return ""
	}
	return inDir(dir, name+ext)
}

func sourceIDPath(dir, ext string, res *ExtractionResult) string {
	if res.SourceID == "" {
		return ""
	}
	return inDir(dir, res.SourceID+ext)
}

// inDir joins name onto dir, or returns "" when the result would escape dir.
// Titles and ids come from the remote side and may contain "..".
func inDir(dir, name string) string {
	p := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, p)
	if err != nil || !filepath.IsLocal(rel) {
		return ""
	}
	return p
}

// Candidates evaluates funcs in order, dropping empty and duplicate paths.
func Candidates(funcs []CandidateFunc, dir, ext string, res *ExtractionResult) []string {
	seen := make(map[string]bool, len(funcs))
	var paths []string
	for _, fn := range funcs {
		p := fn(dir, ext, res)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// Locate returns the first candidate that is a regular, non-empty file.
func Locate(candidates []string) (string, bool) {
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() && info.Size() > 0 {
			return p, true
		}
	}
	return "", false
}
