// Package vfs defines the interface through which the watching subsystem
// invalidates an in-memory file cache, along with a simple bounded reference
// implementation.
package vfs

// Cache is the file cache kept consistent by the watching subsystem. Its
// methods may be called from any Goroutine.
type Cache interface {
	// Cached returns whether or not the cache holds an entry for the path.
	Cached(path string) bool
	// MarkDirty marks the entry for the path as stale.
	MarkDirty(path string)
	// MarkDirtyRecursively marks the entry for the path and all cached entries
	// beneath it as stale.
	MarkDirtyRecursively(path string)
	// MarkFlatDirectoryDirty marks the listing of the directory at the path as
	// stale, without implying that its children are stale.
	MarkFlatDirectoryDirty(path string)
}
