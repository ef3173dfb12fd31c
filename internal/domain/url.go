package domain

import (
	"net/url"
	"regexp"
	"strings"
)

// Accepted URL shapes. Matching is anchored at the start only, so trailing
// query or path noise after the id is tolerated.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/v/[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.)?youtu\.be/[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/embed/[\w-]+`),
}

var idPattern = regexp.MustCompile(`^[\w-]+`)

// ValidateURL reports whether s looks like a YouTube video URL.
// No network call is made.
func ValidateURL(s string) bool {
	for _, p := range urlPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// SourceIDFromURL extracts the video id from an accepted URL, or returns ""
// if none can be found.
func SourceIDFromURL(s string) string {
	if !ValidateURL(s) {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return idPattern.FindString(v)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	return idPattern.FindString(segments[len(segments)-1])
}
