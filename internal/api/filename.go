package api

import (
	"strings"
	"unicode"
)

// sanitizeFilename reduces a client-supplied name to a safe base name:
// path separators and whitespace become underscores, anything outside
// [A-Za-z0-9._-] is dropped, and leading or trailing dots and underscores are trimmed.
func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), "_")

	var b strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-') {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}
