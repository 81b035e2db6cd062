package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

// trackerTestTimeout bounds waits in tracker tests.
const trackerTestTimeout = 1 * time.Second

// waitResult is the result of a WaitForChange call.
type waitResult struct {
	index uint64
	err   error
}

// waitAsync calls WaitForChange in the background.
func waitAsync(ctx context.Context, tracker *Tracker, previous uint64) <-chan waitResult {
	results := make(chan waitResult, 1)
	go func() {
		index, err := tracker.WaitForChange(ctx, previous)
		results <- waitResult{index, err}
	}()
	return results
}

// receive receives a wait result or fails the test.
func receive(t *testing.T, results <-chan waitResult) waitResult {
	t.Helper()
	select {
	case result := <-results:
		return result
	case <-time.After(trackerTestTimeout):
		t.Fatal("timed out waiting for tracker")
		return waitResult{}
	}
}

func TestTrackerChange(t *testing.T) {
	tracker := NewTracker()
	defer tracker.Terminate()

	results := waitAsync(context.Background(), tracker, tracker.Index())
	tracker.NotifyOfChange()
	if result := receive(t, results); result.err != nil || result.index != 2 {
		t.Error("unexpected wait result:", result.index, result.err)
	}
}

func TestTrackerStaleIndexReturnsImmediately(t *testing.T) {
	tracker := NewTracker()
	defer tracker.Terminate()

	tracker.NotifyOfChange()
	tracker.NotifyOfChange()
	if index, err := tracker.WaitForChange(context.Background(), 1); err != nil || index != 3 {
		t.Error("unexpected wait result:", index, err)
	}
}

func TestTrackerCancellation(t *testing.T) {
	tracker := NewTracker()
	defer tracker.Terminate()

	ctx, cancel := context.WithCancel(context.Background())
	results := waitAsync(ctx, tracker, tracker.Index())
	cancel()
	if result := receive(t, results); !errors.Is(result.err, context.Canceled) || result.index != 1 {
		t.Error("unexpected wait result:", result.index, result.err)
	}
}

func TestTrackerTermination(t *testing.T) {
	tracker := NewTracker()

	results := waitAsync(context.Background(), tracker, tracker.Index())
	tracker.Terminate()
	if result := receive(t, results); !errors.Is(result.err, ErrTrackingTerminated) {
		t.Error("wait not terminated:", result.err)
	}

	// Changes after termination are ignored and termination is idempotent.
	tracker.NotifyOfChange()
	tracker.Terminate()
	if index := tracker.Index(); index != 1 {
		t.Error("index changed after termination:", index)
	}
}
