package state

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrTrackingTerminated indicates that tracking was terminated.
var ErrTrackingTerminated = errors.New("tracking terminated")

// Tracker provides index-based state tracking. It is safe for concurrent
// usage.
type Tracker struct {
	// lock serializes access to the tracker's fields.
	lock sync.Mutex
	// index is the current state index.
	index uint64
	// terminated indicates whether or not tracking has been terminated.
	terminated bool
	// change is closed (and replaced) whenever the state index changes. It is
	// closed permanently on termination.
	change chan struct{}
}

// NewTracker creates a new tracker instance with state index 1.
func NewTracker() *Tracker {
	return &Tracker{
		index:  1,
		change: make(chan struct{}),
	}
}

// Index returns the current state index.
func (t *Tracker) Index() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.index
}

// Terminate terminates tracking. It is idempotent.
func (t *Tracker) Terminate() {
	// Acquire the state lock and ensure its release.
	t.lock.Lock()
	defer t.lock.Unlock()

	// Mark tracking as terminated and wake any waiters.
	if !t.terminated {
		t.terminated = true
		close(t.change)
	}
}

// NotifyOfChange increments the state index and notifies waiters. It has no
// effect after termination.
func (t *Tracker) NotifyOfChange() {
	// Acquire the state lock and ensure its release.
	t.lock.Lock()
	defer t.lock.Unlock()

	// Increment the state index and wake waiters.
	if !t.terminated {
		t.index++
		close(t.change)
		t.change = make(chan struct{})
	}
}

// WaitForChange waits for the state index to change from previousIndex. It
// returns the new index, or the current index along with an error if the
// context is cancelled or tracking is terminated.
func (t *Tracker) WaitForChange(ctx context.Context, previousIndex uint64) (uint64, error) {
	for {
		// Check the current state.
		t.lock.Lock()
		index, terminated, change := t.index, t.terminated, t.change
		t.lock.Unlock()
		if terminated {
			return index, ErrTrackingTerminated
		} else if index != previousIndex {
			return index, nil
		}

		// Wait for a change or cancellation.
		select {
		case <-change:
		case <-ctx.Done():
			return index, ctx.Err()
		}
	}
}
