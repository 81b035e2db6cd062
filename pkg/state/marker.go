package state

import (
	"sync/atomic"
)

// Marker records that a condition has occurred. The zero value is unmarked. It
// is safe for concurrent usage.
type Marker struct {
	// marked is set once the condition has occurred.
	marked atomic.Bool
}

// Mark marks the marker. It returns true only for the call that transitioned
// the marker from unmarked to marked.
func (m *Marker) Mark() bool {
	return m.marked.CompareAndSwap(false, true)
}

// Marked returns whether or not the marker has been marked.
func (m *Marker) Marked() bool {
	return m.marked.Load()
}
