package filesystem

import (
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize resolves a normalized absolute path to its canonical form by
// evaluating symbolic links. Paths that don't exist (or that can't be
// resolved) are resolved as far as possible: the longest existing ancestor is
// resolved and the unresolved remainder is appended to it. On macOS, the
// result is additionally converted to NFC, since the filesystem may report
// decomposed names.
func Canonicalize(path string) string {
	// Resolve the longest existing prefix of the path.
	resolved := resolveExisting(path)

	// Perform Unicode normalization where required.
	if runtime.GOOS == "darwin" {
		resolved = norm.NFC.String(resolved)
	}

	// Done.
	return resolved
}

// resolveExisting evaluates symbolic links in the longest existing prefix of
// path.
func resolveExisting(path string) string {
	// Attempt to resolve the full path.
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	} else if !os.IsNotExist(err) {
		return path
	}

	// Otherwise resolve the parent and rejoin the leaf.
	parent, ok := Parent(path)
	if !ok {
		return path
	}
	return filepath.Join(resolveExisting(parent), filepath.Base(path))
}
