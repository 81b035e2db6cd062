package vfs

import (
	"sort"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/mutagen-io/fswatch/pkg/filesystem"
)

// Staleness describes how an entry in a MemoryCache is stale.
type Staleness uint8

const (
	// StaleEntry indicates that the entry's own content or metadata is stale.
	StaleEntry Staleness = 1 << iota
	// StaleListing indicates that the entry's directory listing is stale.
	StaleListing
)

// MemoryCache is a bounded, least-recently-used Cache implementation that only
// tracks entry staleness. Loading, lookup, and marking all count as usage. It
// is safe for concurrent usage.
type MemoryCache struct {
	// lock serializes access to the cache.
	lock sync.Mutex
	// recency tracks entry usage for eviction.
	recency *lru.Cache
	// entries maps paths to their staleness. It mirrors the content of recency
	// so that entries can be iterated.
	entries map[string]Staleness
}

// NewMemoryCache creates a new cache holding at most capacity entries. A
// non-positive capacity means no limit.
func NewMemoryCache(capacity int) *MemoryCache {
	cache := &MemoryCache{
		recency: lru.New(capacity),
		entries: make(map[string]Staleness),
	}
	cache.recency.OnEvicted = func(key lru.Key, _ interface{}) {
		delete(cache.entries, key.(string))
	}
	return cache
}

// Load records a fresh entry for the path, as if its content had been read.
func (c *MemoryCache) Load(path string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.recency.Add(path, nil)
	c.entries[path] = 0
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.entries)
}

// Cached implements Cache.Cached.
func (c *MemoryCache) Cached(path string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.entries[path]
	if ok {
		c.recency.Get(path)
	}
	return ok
}

// mark adds staleness to an entry if it's cached. The caller must hold the
// lock.
func (c *MemoryCache) mark(path string, staleness Staleness) {
	if current, ok := c.entries[path]; ok {
		c.entries[path] = current | staleness
		c.recency.Get(path)
	}
}

// MarkDirty implements Cache.MarkDirty.
func (c *MemoryCache) MarkDirty(path string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.mark(path, StaleEntry)
}

// MarkDirtyRecursively implements Cache.MarkDirtyRecursively.
func (c *MemoryCache) MarkDirtyRecursively(path string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for entry := range c.entries {
		if filesystem.IsAncestor(path, entry, false) {
			c.mark(entry, StaleEntry|StaleListing)
		}
	}
}

// MarkFlatDirectoryDirty implements Cache.MarkFlatDirectoryDirty.
func (c *MemoryCache) MarkFlatDirectoryDirty(path string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.mark(path, StaleListing)
}

// Staleness returns the staleness of a cached entry. It returns false if the
// path isn't cached.
func (c *MemoryCache) Staleness(path string) (Staleness, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	staleness, ok := c.entries[path]
	return staleness, ok
}

// Refresh returns the sorted paths of all stale entries and marks them fresh,
// as a refresh cycle that re-read them would.
func (c *MemoryCache) Refresh() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	var stale []string
	for path, staleness := range c.entries {
		if staleness != 0 {
			stale = append(stale, path)
			c.entries[path] = 0
		}
	}
	sort.Strings(stale)
	return stale
}
