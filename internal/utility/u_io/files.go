package u_io

import (
	"path/filepath"
	"strings"
)

// CleanFilename replaces every rune outside [A-Za-z0-9_.] with an underscore.
// Path separators are replaced too, so the result never leaves its directory.
func CleanFilename(filename string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '_' {
			return r
		}
		return '_'
	}, filename)
}

// HasIgnoredSuffix reports whether name ends with one of the given suffixes
func HasIgnoredSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// ExpandPlaceholder replaces ${key} in path with value and cleans the result
func ExpandPlaceholder(path, key, value string) string {
	return filepath.Clean(strings.ReplaceAll(path, "${"+key+"}", value))
}
