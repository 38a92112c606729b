package utils

import (
	"path/filepath"
	"strings"
)

// Canonical resolves symlinks and returns an absolute path. When the path
// cannot be resolved the absolute form of the input is returned instead.
func Canonical(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	return filepath.Abs(resolved)
}

// IsPathWithin returns true if the given path is within any of the roots.
func IsPathWithin(path string, roots []string) bool {
	absPath, err := Canonical(path)
	if err != nil {
		return false
	}
	for _, root := range roots {
		absRoot, err := Canonical(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absRoot, absPath)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
