package pathutil

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizeForLookup creates a canonical, case-normalized path suitable for use as a map key or in comparisons.
// It performs the following steps:
// 1. Makes the path absolute.
// 2. Evaluates any symbolic links.
// 3. On case-insensitive OSes (macOS, Windows), converts the path to lowercase.
func NormalizeForLookup(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = filepath.Clean(path)
	}
	canonicalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// path may not exist (yet)
		canonicalPath = absPath
	}

	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return strings.ToLower(canonicalPath)
	}
	return canonicalPath
}

// SamePath reports whether two paths refer to the same location.
func SamePath(a, b string) bool {
	return NormalizeForLookup(a) == NormalizeForLookup(b)
}
