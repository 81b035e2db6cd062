package state

import (
	"testing"
	"time"
)

func TestCoalescerGroupsStrobes(t *testing.T) {
	coalescer := NewCoalescer(20*time.Millisecond, 0)
	defer coalescer.Terminate()

	// Strobe several times in rapid succession.
	for i := 0; i < 5; i++ {
		coalescer.Strobe()
	}

	// Expect a single signal.
	select {
	case <-coalescer.Signals():
	case <-time.After(time.Second):
		t.Fatal("coalesced signal not received")
	}
	select {
	case <-coalescer.Signals():
		t.Error("received more than one signal for grouped strobes")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCoalescerStrobeAfterTerminate(t *testing.T) {
	coalescer := NewCoalescer(-1, 0)
	coalescer.Terminate()
	coalescer.Terminate()
	coalescer.Strobe()
}

func TestCoalescerMaximumDelay(t *testing.T) {
	coalescer := NewCoalescer(50*time.Millisecond, 100*time.Millisecond)
	defer coalescer.Terminate()

	// Strobe continuously for longer than the maximum delay and ensure that a
	// signal still arrives while strobing.
	deadline := time.After(time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-coalescer.Signals():
			return
		case <-ticker.C:
			coalescer.Strobe()
		case <-deadline:
			t.Fatal("signal not delivered within maximum delay under continuous strobing")
		}
	}
}
