package dirty

import (
	"sync"

	"github.com/mutagen-io/fswatch/pkg/filesystem"
	"github.com/mutagen-io/fswatch/pkg/watching/protocol"
)

// DefaultMaximumPendingPaths is the default bound on the number of entries
// accumulated between drains.
const DefaultMaximumPendingPaths = 1 << 16

// Aggregator accumulates change notifications into a dirty set that can be
// drained atomically. It is safe for concurrent usage. Its lock is only ever
// held for set insertions or a pointer swap.
type Aggregator struct {
	// maximumPendingPaths is the accumulation bound.
	maximumPendingPaths int
	// onChange is invoked (outside of the lock) after every recorded event.
	onChange func()
	// lock serializes access to pending.
	lock sync.Mutex
	// pending is the current accumulator.
	pending *Paths
}

// NewAggregator creates a new aggregator. If maximumPendingPaths is
// non-positive, DefaultMaximumPendingPaths is used. The optional onChange
// callback is invoked after each recorded event and must not block.
func NewAggregator(maximumPendingPaths int, onChange func()) *Aggregator {
	if maximumPendingPaths <= 0 {
		maximumPendingPaths = DefaultMaximumPendingPaths
	}
	return &Aggregator{
		maximumPendingPaths: maximumPendingPaths,
		onChange:            onChange,
		pending:             newPaths(),
	}
}

// full returns whether or not the accumulator has overflowed, marking it as
// such if the bound has been reached. The caller must hold the lock.
func (a *Aggregator) full() bool {
	if !a.pending.Overflowed && a.pending.Len() >= a.maximumPendingPaths {
		a.pending.Overflowed = true
		a.pending.Paths = make(map[string]struct{})
		a.pending.Recursive = make(map[string]struct{})
		a.pending.Directories = make(map[string]struct{})
	}
	return a.pending.Overflowed
}

// markPath records an individual dirty path. The caller must hold the lock.
func (a *Aggregator) markPath(path string) {
	if _, ok := a.pending.Recursive[path]; ok {
		return
	} else if _, ok = a.pending.Paths[path]; ok {
		return
	} else if !a.full() {
		a.pending.Paths[path] = struct{}{}
	}
}

// markRecursive records a recursively dirty path, which subsumes any
// individual dirtiness of the same path. The caller must hold the lock.
func (a *Aggregator) markRecursive(path string) {
	if _, ok := a.pending.Recursive[path]; ok {
		return
	}
	delete(a.pending.Paths, path)
	if !a.full() {
		a.pending.Recursive[path] = struct{}{}
	}
}

// markDirectory records a dirty directory listing. The caller must hold the
// lock.
func (a *Aggregator) markDirectory(path string) {
	if _, ok := a.pending.Directories[path]; ok {
		return
	} else if !a.full() {
		a.pending.Directories[path] = struct{}{}
	}
}

// OnEvent records a single-path event. Operations that don't carry a path
// (or that aren't change notifications) are ignored.
func (a *Aggregator) OnEvent(op protocol.Op, path string) {
	a.lock.Lock()
	switch op {
	case protocol.OpChange, protocol.OpStats:
		a.markPath(path)
	case protocol.OpCreate, protocol.OpDelete:
		a.markRecursive(path)
		if parent, ok := filesystem.Parent(path); ok {
			a.markPath(parent)
		}
	case protocol.OpDirty:
		a.markDirectory(path)
	case protocol.OpRecursiveDirty, protocol.OpReset:
		a.markRecursive(path)
	case protocol.OpGiveUp, protocol.OpUnwatchable, protocol.OpRemap, protocol.OpMessage:
		a.lock.Unlock()
		return
	default:
		panic("unhandled operation")
	}
	a.lock.Unlock()

	// Signal the change.
	if a.onChange != nil {
		a.onChange()
	}
}

// OnFlatReset records the invalidation of a flat root: its own metadata and
// its listing are stale, but its children's contents are not implied stale.
func (a *Aggregator) OnFlatReset(path string) {
	a.lock.Lock()
	a.markPath(path)
	a.markDirectory(path)
	a.lock.Unlock()
	if a.onChange != nil {
		a.onChange()
	}
}

// Drain returns the accumulated dirty set and replaces it with an empty one.
func (a *Aggregator) Drain() *Paths {
	fresh := newPaths()
	a.lock.Lock()
	drained := a.pending
	a.pending = fresh
	a.lock.Unlock()
	return drained
}
