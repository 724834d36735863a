// Package sanitize cleans user-entered metadata for use in filenames.
package sanitize

import (
	"regexp"
	"strings"
)

// reservedChars covers path separators plus the characters Windows refuses
// in filenames.
var reservedChars = regexp.MustCompile(`[/\\<>:"|?*\x00-\x1f]`)

var multiSpace = regexp.MustCompile(`\s+`)

// invisible characters that survive copy-paste from rich text sources.
var invisibleChars = []string{
	"\u200B", // zero-width space
	"\u200C", // zero-width non-joiner
	"\u200D", // zero-width joiner
	"\uFEFF", // byte order mark
	"\u00AD", // soft hyphen
	"\u2060", // word joiner
}

// Filename turns arbitrary metadata text into a safe filename fragment.
// Reserved and invisible characters are dropped, whitespace runs collapse
// to one space, and leading dots go so the result is never hidden or a
// path traversal. Empty input (or input that sanitizes to nothing) yields
// the fallback.
func Filename(s, fallback string) string {
	for _, ch := range invisibleChars {
		s = strings.ReplaceAll(s, ch, "")
	}
	s = reservedChars.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ".")

	if s == "" {
		return fallback
	}
	return s
}
