package fileutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolvePath resolves a path from the project configuration.
// If the provided path is already absolute, it's returned as is.
// If it's relative, it's joined with baseDir to create an absolute path.
func ResolvePath(baseDir, p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory %q: %w", baseDir, err)
	}
	return filepath.Join(absBase, p), nil
}

// Within reports whether target is root itself or lies below it.
func Within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
