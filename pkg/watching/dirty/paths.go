package dirty

import (
	"sort"
)

// Paths is a set of dirty paths accumulated between drains.
type Paths struct {
	// Paths are individual files or directories whose own metadata or content
	// is stale.
	Paths map[string]struct{}
	// Recursive are paths whose whole subtree is stale.
	Recursive map[string]struct{}
	// Directories are directories whose listing (but not their children's
	// content) is stale.
	Directories map[string]struct{}
	// Overflowed indicates that too many paths were accumulated and that the
	// sets are incomplete. Consumers must treat every root as stale.
	Overflowed bool
}

// newPaths creates a new empty set.
func newPaths() *Paths {
	return &Paths{
		Paths:       make(map[string]struct{}),
		Recursive:   make(map[string]struct{}),
		Directories: make(map[string]struct{}),
	}
}

// Len returns the total number of entries across all sets.
func (p *Paths) Len() int {
	return len(p.Paths) + len(p.Recursive) + len(p.Directories)
}

// Empty returns whether or not the set is empty and not overflowed.
func (p *Paths) Empty() bool {
	return p.Len() == 0 && !p.Overflowed
}

// sorted converts a set to a sorted list.
func sorted(set map[string]struct{}) []string {
	result := make([]string, 0, len(set))
	for path := range set {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// SortedPaths returns the individual dirty paths in sorted order.
func (p *Paths) SortedPaths() []string {
	return sorted(p.Paths)
}

// SortedRecursive returns the recursively dirty paths in sorted order.
func (p *Paths) SortedRecursive() []string {
	return sorted(p.Recursive)
}

// SortedDirectories returns the dirty directories in sorted order.
func (p *Paths) SortedDirectories() []string {
	return sorted(p.Directories)
}
