package util

import (
	"path/filepath"
	"strings"
)

// reservedChars are the characters that are invalid in filenames on at least
// one supported filesystem (NTFS has the strictest set).
const reservedChars = `<>:"/\|?*`

// SanitizeComponent turns an arbitrary path segment (a filename stem or a
// directory name) into a filesystem-safe component. Reserved characters are
// replaced with '_', surrounding whitespace and trailing dots are stripped,
// and an empty result collapses to "_" so callers always get a usable
// component back.
func SanitizeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if strings.ContainsRune(reservedChars, ch) {
			b.WriteRune('_')
		} else {
			b.WriteRune(ch)
		}
	}
	out := strings.TrimSpace(b.String())
	out = strings.TrimRight(out, ".")
	out = strings.TrimSpace(out)
	if out == "" {
		return "_"
	}
	return out
}

// MatchesIgnorePattern checks whether a slash-separated relative path matches
// a glob pattern. Patterns are tried against the full relative path and
// against every path suffix, so "*.tmp" excludes temp files at any depth
// while "drafts/*" only matches entries directly under drafts.
// Note: this is a simplified matcher built on filepath.Match and does not
// implement the full gitignore spec.
func MatchesIgnorePattern(pattern, relPath string) bool {
	pattern = filepath.ToSlash(pattern)
	relPath = filepath.ToSlash(relPath)
	if pattern == "" || relPath == "" || relPath == "." {
		return false
	}
	if ok, _ := filepath.Match(pattern, relPath); ok {
		return true
	}
	parts := strings.Split(relPath, "/")
	for i := 1; i < len(parts); i++ {
		if ok, _ := filepath.Match(pattern, strings.Join(parts[i:], "/")); ok {
			return true
		}
	}
	return false
}

// LastNonBlankLine returns the last line of s containing non-whitespace
// content, or "" if there is none. Used to condense a tool's stderr into a
// one-line diagnostic.
func LastNonBlankLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
