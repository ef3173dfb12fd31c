package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxFilenameLength bounds sanitized names, in bytes.
const MaxFilenameLength = 255

var reservedChars = strings.NewReplacer(
	"<", "", ">", "", ":", "", `"`, "",
	"/", "", `\`, "", "|", "", "?", "", "*", "",
	" ", "_",
)

// SanitizeFilename drops characters that are reserved on common filesystems,
// turns spaces into underscores and truncates the result to
// MaxFilenameLength bytes without splitting a rune. Distinct titles may map
// to the same name.
func SanitizeFilename(name string) string {
	name = reservedChars.Replace(name)
	if len(name) <= MaxFilenameLength {
		return name
	}
	cut := MaxFilenameLength
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
