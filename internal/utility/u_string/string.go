package u_string

import (
	"strings"
	"unicode"
)

// IsBlank reports whether s is empty or consists only of whitespace
func IsBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// FirstField returns the part of s before the first sep, or s itself when sep is empty
func FirstField(s, sep string) string {
	if sep == "" {
		return s
	}
	before, _, _ := strings.Cut(s, sep)
	return before
}
