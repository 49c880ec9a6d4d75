// Package util provides common string helpers used across the recorder.
package util

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// RemoveTags strips client markup such as <col=ff0000> and <img=1> from text.
func RemoveTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// SanitizeFileName replaces characters that are unsafe in file names with underscores.
func SanitizeFileName(s string) string {
	r := strings.NewReplacer(" ", "_", ":", "_", "/", "_", `\`, "_")
	return r.Replace(s)
}
