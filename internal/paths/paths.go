// Package paths provides the path normalization rules used as store keys.
package paths

import (
	"path/filepath"
	"strings"
)

// Normalize converts a file path to the canonical form used as a store key.
// Absolute where possible, cleaned, forward slashes on every platform.
func Normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// FileName returns the base name of a normalized or raw path
func FileName(path string) string {
	return filepath.Base(filepath.FromSlash(path))
}

// Parent returns the normalized parent directory of a path
func Parent(path string) string {
	return filepath.ToSlash(filepath.Dir(filepath.FromSlash(path)))
}

// Ext returns the lower-cased extension including the dot
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// SameParent reports whether two paths share a parent directory
func SameParent(a, b string) bool {
	return Parent(a) == Parent(b)
}
