package state

import (
	"sync"
	"time"
)

// Coalescer combines bursts of strobes into single signals. A signal is
// delivered once no strobe has arrived for the coalescing window or, if a
// maximum delay is set, once the maximum delay has elapsed since the first
// strobe of the burst. It is safe for concurrent usage.
type Coalescer struct {
	// window is the quiet period that ends a burst.
	window time.Duration
	// maximumDelay bounds the delay of a signal relative to the first strobe
	// of its burst. Zero means no bound.
	maximumDelay time.Duration
	// signals is the signal channel. It has a capacity of one.
	signals chan struct{}

	// lock guards the fields below.
	lock sync.Mutex
	// timer is the burst timer, created on the first strobe.
	timer *time.Timer
	// deadline is the latest delivery time for the current burst, if any.
	deadline time.Time
	// terminated indicates that the coalescer has been terminated.
	terminated bool
}

// NewCoalescer creates a new coalescer. Negative durations are treated as
// zero.
func NewCoalescer(window, maximumDelay time.Duration) *Coalescer {
	if window < 0 {
		window = 0
	}
	if maximumDelay < 0 {
		maximumDelay = 0
	}
	return &Coalescer{
		window:       window,
		maximumDelay: maximumDelay,
		signals:      make(chan struct{}, 1),
	}
}

// fire delivers a signal for the current burst.
func (c *Coalescer) fire() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.terminated {
		return
	}
	c.deadline = time.Time{}
	select {
	case c.signals <- struct{}{}:
	default:
	}
}

// Strobe records a strobe, (re)starting the burst timer. It has no effect after
// termination.
func (c *Coalescer) Strobe() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.terminated {
		return
	}

	// Compute the delay, capping it at the burst deadline.
	delay := c.window
	if c.maximumDelay > 0 {
		now := time.Now()
		if c.deadline.IsZero() {
			c.deadline = now.Add(c.maximumDelay)
		}
		if remaining := c.deadline.Sub(now); remaining < delay {
			delay = remaining
		}
		if delay < 0 {
			delay = 0
		}
	}

	// Arm the timer.
	if c.timer == nil {
		c.timer = time.AfterFunc(delay, c.fire)
	} else {
		c.timer.Stop()
		c.timer.Reset(delay)
	}
}

// Signals returns the signal channel. It's buffered with a capacity of one, so
// signals aren't lost if it isn't actively polled, and it's never closed.
func (c *Coalescer) Signals() <-chan struct{} {
	return c.signals
}

// Terminate stops the coalescer. Pending bursts are discarded, but a signal
// that's already buffered remains available. It is idempotent.
func (c *Coalescer) Terminate() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.terminated = true
	if c.timer != nil {
		c.timer.Stop()
	}
}
