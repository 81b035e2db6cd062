package session

import (
	"sync"
)

// FailureNotifier receives user-visible failure notifications.
type FailureNotifier interface {
	// NotifyFailure reports a failure. It must not block.
	NotifyFailure(message string)
}

// FailureNotifierFunc adapts a function to the FailureNotifier interface.
type FailureNotifierFunc func(message string)

// NotifyFailure implements FailureNotifier.NotifyFailure.
func (f FailureNotifierFunc) NotifyFailure(message string) {
	f(message)
}

// onceNotifier forwards each distinct failure cause at most once until that
// cause is acknowledged.
type onceNotifier struct {
	// notifier is the underlying notifier. It may be nil.
	notifier FailureNotifier
	// lock guards reported.
	lock sync.Mutex
	// reported is the set of causes reported and not yet acknowledged.
	reported map[string]bool
}

// newOnceNotifier creates a new once-per-cause notifier.
func newOnceNotifier(notifier FailureNotifier) *onceNotifier {
	return &onceNotifier{
		notifier: notifier,
		reported: make(map[string]bool),
	}
}

// notify reports a failure if its cause hasn't been reported since it was last
// acknowledged. It returns whether or not the failure was forwarded.
func (n *onceNotifier) notify(cause, message string) bool {
	n.lock.Lock()
	if n.reported[cause] {
		n.lock.Unlock()
		return false
	}
	n.reported[cause] = true
	n.lock.Unlock()
	if n.notifier != nil {
		n.notifier.NotifyFailure(message)
	}
	return true
}

// acknowledge allows a cause to be reported again.
func (n *onceNotifier) acknowledge(cause string) {
	n.lock.Lock()
	delete(n.reported, cause)
	n.lock.Unlock()
}
