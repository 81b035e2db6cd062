package state

import (
	"sync"
)

// TrackingLock is a mutex whose release bumps a Tracker's index, so that
// waiters observe every critical section that may have modified guarded
// state. Read-only sections can release without notifying.
type TrackingLock struct {
	// mutex is the underlying mutex.
	mutex sync.Mutex
	// tracker is notified on each notifying release.
	tracker *Tracker
}

// NewTrackingLock creates a new tracking lock that notifies tracker.
func NewTrackingLock(tracker *Tracker) *TrackingLock {
	return &TrackingLock{tracker: tracker}
}

// Lock acquires the lock.
func (l *TrackingLock) Lock() {
	l.mutex.Lock()
}

// Unlock releases the lock and notifies the tracker of a change.
func (l *TrackingLock) Unlock() {
	l.mutex.Unlock()
	l.tracker.NotifyOfChange()
}

// UnlockWithoutNotify releases the lock without notifying the tracker.
func (l *TrackingLock) UnlockWithoutNotify() {
	l.mutex.Unlock()
}
