package filesystem

import (
	"os"
	"path/filepath"
	"strings"
)

// TrimTrailingSeparators removes any trailing path separators from a path.
// A path consisting solely of separators is reduced to a single separator so
// that filesystem roots are preserved.
func TrimTrailingSeparators(path string) string {
	end := len(path)
	for end > 1 && os.IsPathSeparator(path[end-1]) {
		end--
	}
	return path[:end]
}

// Parent returns the parent of an absolute path. It returns false if the path
// has no parent (i.e. if it's a filesystem root or empty).
func Parent(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	parent := filepath.Dir(path)
	if parent == path {
		return "", false
	}
	return parent, true
}

// IsAncestor returns whether or not ancestor is equal to or contains path. If
// strict is true, then equal paths are not considered ancestors. Both paths
// must be clean and absolute. An empty ancestor contains nothing.
func IsAncestor(ancestor, path string, strict bool) bool {
	if ancestor == "" {
		return false
	} else if ancestor == path {
		return !strict
	}
	if !strings.HasPrefix(path, ancestor) {
		return false
	}
	if os.IsPathSeparator(ancestor[len(ancestor)-1]) {
		return true
	}
	return os.IsPathSeparator(path[len(ancestor)])
}

// Rebase converts a path contained within (or equal to) base into the
// equivalent path contained within target. It returns false if path is not
// contained within base.
func Rebase(path, base, target string) (string, bool) {
	if !IsAncestor(base, path, false) {
		return "", false
	}
	relative := strings.TrimLeft(path[len(base):], string(filepath.Separator))
	if relative == "" {
		return target, true
	}
	return filepath.Join(target, relative), true
}

// Segments splits a clean absolute path into its components. The first
// component is the volume name or root (e.g. "/" or "C:\"), which ensures that
// distinct volumes never share a first segment.
func Segments(path string) []string {
	// Extract the volume and the root separator, if any.
	volume := filepath.VolumeName(path)
	remaining := path[len(volume):]
	root := volume
	if remaining != "" && os.IsPathSeparator(remaining[0]) {
		root += string(filepath.Separator)
		remaining = remaining[1:]
	}

	// Split the remainder.
	segments := []string{root}
	for _, segment := range strings.Split(remaining, string(filepath.Separator)) {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
