package pathmap

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/mutagen-io/fswatch/pkg/filesystem"
)

// Resolver converts an original (requested) path to its canonical form.
type Resolver func(string) string

// root is a requested watch root along with its canonical form.
type root struct {
	// original is the path as requested.
	original string
	// canonical is the resolved form of original.
	canonical string
	// recursive indicates whether the root covers its whole subtree.
	recursive bool
}

// alias associates a canonical path prefix with an original path prefix.
type alias struct {
	// canonical is the canonical (reported) prefix.
	canonical string
	// original is the original (requested) prefix.
	original string
}

// Map maps canonical paths reported by a native watcher back to the original
// paths that were requested. A single canonical root may correspond to
// several originals (e.g. a directory and a symbolic link pointing to it).
// Map is safe for concurrent usage: lookups and remaps may happen on the
// watcher's output goroutine while roots are rebuilt elsewhere, though a
// rebuild produces a new Map rather than modifying an existing one.
type Map struct {
	// roots are the requested roots in request order.
	roots []root
	// aliasesLock serializes access to aliases.
	aliasesLock sync.RWMutex
	// aliases are the canonical-to-original associations, derived from roots
	// and extended by remaps.
	aliases []alias
}

// Build creates a new map for the specified recursive and flat roots, using
// the specified resolver to compute canonical forms. If resolve is nil, then
// paths are taken to already be canonical.
func Build(recursive, flat []string, resolve Resolver) *Map {
	// Use an identity resolver if none is specified.
	if resolve == nil {
		resolve = func(path string) string { return path }
	}

	// Record roots and their canonical aliases.
	result := &Map{}
	add := func(path string, recursive bool) {
		canonical := resolve(path)
		result.roots = append(result.roots, root{path, canonical, recursive})
		result.addAlias(canonical, path)
	}
	for _, path := range recursive {
		add(path, true)
	}
	for _, path := range flat {
		add(path, false)
	}

	// Done.
	return result
}

// addAlias records an alias if it isn't already present. The caller must hold
// the aliases lock for writing (or have exclusive access to the map).
func (m *Map) addAlias(canonical, original string) {
	for _, existing := range m.aliases {
		if existing.canonical == canonical && existing.original == original {
			return
		}
	}
	m.aliases = append(m.aliases, alias{canonical, original})
}

// CanonicalRoots returns the deduplicated canonical recursive and flat roots
// to send to the native watcher, in request order. A canonical flat root that
// is also a canonical recursive root is only reported as recursive.
func (m *Map) CanonicalRoots() (recursive, flat []string) {
	seen := make(map[string]bool, len(m.roots))
	for _, r := range m.roots {
		if r.recursive && !seen[r.canonical] {
			seen[r.canonical] = true
			recursive = append(recursive, r.canonical)
		}
	}
	for _, r := range m.roots {
		if !r.recursive && !seen[r.canonical] {
			seen[r.canonical] = true
			flat = append(flat, r.canonical)
		}
	}
	return
}

// Roots returns the original recursive and flat roots, in request order.
func (m *Map) Roots() (recursive, flat []string) {
	for _, r := range m.roots {
		if r.recursive {
			recursive = append(recursive, r.original)
		} else {
			flat = append(flat, r.original)
		}
	}
	return
}

// OriginalRoots returns the original roots whose canonical form is the
// specified path.
func (m *Map) OriginalRoots(canonical string) []string {
	var result []string
	for _, r := range m.roots {
		if r.canonical == canonical {
			result = append(result, r.original)
		}
	}
	return result
}

// AddRemap records additional associations reported by the native watcher.
// Each pair consists of an original path (as the watcher encountered it) and
// the canonical path that it resolves to. Existing associations are never
// removed.
func (m *Map) AddRemap(pairs [][2]string) {
	m.aliasesLock.Lock()
	defer m.aliasesLock.Unlock()
	for _, pair := range pairs {
		from := filesystem.TrimTrailingSeparators(filepath.Clean(pair[0]))
		to := filesystem.TrimTrailingSeparators(filepath.Clean(pair[1]))
		if from != to {
			m.addAlias(to, from)
		}
	}
}

// covers returns whether or not an original root covers the specified path.
func (r *root) covers(path string) bool {
	if r.recursive {
		return filesystem.IsAncestor(r.original, path, false)
	}
	if path == r.original {
		return true
	}
	parent, ok := filesystem.Parent(path)
	return ok && parent == r.original
}

// WatchedPathsFor returns every original watched path corresponding to a path
// reported by the native watcher. The reported path is rebased onto every
// original path whose canonical form contains it, repeatedly, so that remaps
// reported in canonical terms are carried through the aliases of the roots
// beneath which they were found. Each candidate is kept if an original root
// covers it. If recursiveScope is true, then a reported ancestor of a root also
// yields that root, since the creation or removal of an ancestor affects
// everything beneath it. Unknown and empty paths yield no results. Results are
// sorted and deduplicated.
func (m *Map) WatchedPathsFor(reported string, recursiveScope bool) []string {
	if reported == "" {
		return nil
	}

	// Compute candidate original paths. Each round rebases the candidates
	// found by the previous one, and no chain of distinct aliases can be longer
	// than the alias list itself.
	candidates := map[string]bool{reported: true}
	m.aliasesLock.RLock()
	frontier := []string{reported}
	for round := 0; round < len(m.aliases) && len(frontier) > 0; round++ {
		var next []string
		for _, path := range frontier {
			for _, a := range m.aliases {
				if rebased, ok := filesystem.Rebase(path, a.canonical, a.original); ok && !candidates[rebased] {
					candidates[rebased] = true
					next = append(next, rebased)
				}
			}
		}
		frontier = next
	}
	m.aliasesLock.RUnlock()

	// Filter candidates by root coverage.
	results := make(map[string]bool)
	for candidate := range candidates {
		for i := range m.roots {
			if m.roots[i].covers(candidate) {
				results[candidate] = true
				break
			}
		}
	}

	// Handle events reported for ancestors of roots.
	if recursiveScope {
		for _, r := range m.roots {
			if filesystem.IsAncestor(reported, r.canonical, true) {
				results[r.original] = true
				continue
			}
			for candidate := range candidates {
				if filesystem.IsAncestor(candidate, r.original, true) {
					results[r.original] = true
					break
				}
			}
		}
	}

	// Convert to a sorted list.
	sorted := make([]string, 0, len(results))
	for path := range results {
		sorted = append(sorted, path)
	}
	sort.Strings(sorted)
	return sorted
}
