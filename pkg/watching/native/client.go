package native

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mutagen-io/fswatch/pkg/logging"
	"github.com/mutagen-io/fswatch/pkg/process"
	"github.com/mutagen-io/fswatch/pkg/state"
	"github.com/mutagen-io/fswatch/pkg/watching/dirty"
	"github.com/mutagen-io/fswatch/pkg/watching/pathmap"
	"github.com/mutagen-io/fswatch/pkg/watching/protocol"
)

// Client supervises a native notifier process. It sends root configurations to
// the process, decodes the process' output, translates reported paths back to
// the paths that were originally requested, and records the results in a dirty
// path aggregator. Processes that exit unexpectedly are restarted, up to a
// bounded number of consecutive failures.
type Client struct {
	// options are the client options, with defaults applied.
	options Options
	// aggregator is the destination for dirty paths.
	aggregator *dirty.Aggregator
	// callbacks are the client's notification callbacks.
	callbacks Callbacks
	// logger is the client's logger.
	logger *logging.Logger
	// shuttingDown is marked once termination begins.
	shuttingDown state.Marker
	// terminate is closed once termination begins.
	terminate chan struct{}
	// done is closed once the supervision Goroutine exits.
	done chan struct{}
	// terminateOnce guards termination.
	terminateOnce sync.Once

	// lock guards the fields below.
	lock sync.Mutex
	// state is the current supervision state.
	state State
	// handle is the current process, if any.
	handle *process.Handle
	// pathMap is the current path map.
	pathMap *pathmap.Map
	// failed indicates that a fatal failure has been reported.
	failed bool

	// rootsLock serializes root transmission. It's held while writing to the
	// process, so it's never acquired while lock is held.
	rootsLock sync.Mutex
	// sentRoots is the encoded root configuration most recently sent to
	// sentHandle.
	sentRoots []byte
	// sentHandle is the process that sentRoots was sent to.
	sentHandle *process.Handle
	// awaiting are the path maps whose roots were sent to the current process
	// and not yet acknowledged with an unwatchable root report, in order. It's
	// guarded by lock.
	awaiting []*pathmap.Map
}

// NewClient creates a new client, validates the notifier executable, and
// starts supervising notifier processes. If the executable is unusable, no
// process is started and an error is returned. The aggregator must be non-nil.
func NewClient(options Options, aggregator *dirty.Aggregator, callbacks Callbacks) (*Client, error) {
	// Apply defaults.
	options = options.withDefaults()

	// Validate the executable.
	if err := checkExecutable(options.Executable); err != nil {
		return nil, errors.Wrap(err, "invalid notifier executable")
	}

	// Create the client.
	client := &Client{
		options:    options,
		aggregator: aggregator,
		callbacks:  callbacks,
		logger:     options.Logger,
		terminate:  make(chan struct{}),
		done:       make(chan struct{}),
		state:      StateStarting,
		pathMap:    pathmap.Build(nil, nil, nil),
	}

	// Start supervision.
	go client.supervise()

	// Success.
	return client, nil
}

// checkExecutable verifies that path refers to a regular, executable file.
func checkExecutable(path string) error {
	if path == "" {
		return errors.New("no executable specified")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	} else if !info.Mode().IsRegular() {
		return errors.New("not a regular file")
	} else if !isExecutable(info.Mode()) {
		return errors.New("not executable")
	}
	return nil
}

// setState updates the supervision state and invokes the state callback.
func (c *Client) setState(state State) {
	c.lock.Lock()
	if c.state == state {
		c.lock.Unlock()
		return
	}
	c.state = state
	c.lock.Unlock()
	c.logger.Debugf("Notifier state changed to %s", state)
	if c.callbacks.StateChanged != nil {
		c.callbacks.StateChanged(state)
	}
}

// State returns the current supervision state.
func (c *Client) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

// IsOperational returns whether or not the client is (or will shortly be)
// delivering notifications.
func (c *Client) IsOperational() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.failed {
		return false
	}
	return c.state == StateStarting || c.state == StateRunning || c.state == StateTerminated
}

// fail records and reports a failure. Fatal causes are reported only once.
func (c *Client) fail(cause Cause, message string) {
	if cause.Fatal() {
		c.lock.Lock()
		if c.failed {
			c.lock.Unlock()
			return
		}
		c.failed = true
		c.lock.Unlock()
		c.logger.Error(errors.Errorf("notifier failure (%s): %s", cause, message))
	}
	if c.callbacks.Failure != nil {
		c.callbacks.Failure(cause, message)
	}
}

// launch starts a new notifier process and sends it the current roots. It
// returns nil without error if the client is shutting down.
func (c *Client) launch() (*process.Handle, error) {
	// Start the process, unless we're shutting down. We hold the lock while
	// starting so that termination can't miss the new handle.
	c.lock.Lock()
	if c.shuttingDown.Marked() {
		c.lock.Unlock()
		return nil, nil
	}
	handle, err := process.Start(
		c.options.Executable, nil, c.options.Environment,
		c.logger.Sublogger("notifier").Writer(logging.LevelDebug),
	)
	if err != nil {
		c.lock.Unlock()
		return nil, err
	}
	c.handle = handle
	c.awaiting = nil
	c.lock.Unlock()
	c.logger.Debugf("Started notifier with PID %d", handle.PID())

	// Send the current roots.
	c.sendRoots()

	// Success.
	return handle, nil
}

// sendRoots sends the current roots to the current process if they differ from
// what was last sent to it.
func (c *Client) sendRoots() {
	// Serialize transmission.
	c.rootsLock.Lock()
	defer c.rootsLock.Unlock()

	// Grab the current process and roots.
	c.lock.Lock()
	handle, pathMap := c.handle, c.pathMap
	c.lock.Unlock()
	recursive, flat := pathMap.CanonicalRoots()
	if handle == nil {
		return
	}

	// Avoid re-sending identical roots to the same process.
	encoded := protocol.EncodeRoots(recursive, flat)
	if handle == c.sentHandle && bytes.Equal(encoded, c.sentRoots) {
		c.logger.Tracef("Skipping transmission of unchanged roots")
		return
	}

	// Send the roots. The path map is queued before writing since the
	// process may respond immediately. If the write fails, then the process
	// has exited and the roots will be re-sent to the next process.
	c.lock.Lock()
	c.awaiting = append(c.awaiting, pathMap)
	c.lock.Unlock()
	if _, err := handle.Write(encoded); err != nil {
		c.logger.Debugf("Unable to send roots: %v", err)
		return
	}
	c.sentHandle = handle
	c.sentRoots = encoded
	c.logger.Debugf("Sent %d recursive and %d flat roots", len(recursive), len(flat))
}

// SetRoots sets the path map describing the roots to watch. The roots are sent
// to the running process, unless they're identical to the roots that it's
// already watching. They're also retained and re-sent if the process restarts.
func (c *Client) SetRoots(pathMap *pathmap.Map) {
	c.lock.Lock()
	c.pathMap = pathMap
	c.lock.Unlock()
	c.sendRoots()
}

// currentPathMap returns the current path map.
func (c *Client) currentPathMap() *pathmap.Map {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pathMap
}

// supervise runs the process supervision loop.
func (c *Client) supervise() {
	// Signal completion when done.
	defer close(c.done)

	// Track consecutive failed launches.
	var failures int

	// Loop until shut down or failed.
	for {
		// Launch a process.
		c.setState(StateStarting)
		handle, err := c.launch()
		if err != nil {
			c.logger.Warn(errors.Wrap(err, "unable to start notifier"))
		} else if handle == nil {
			return
		} else {
			c.setState(StateRunning)

			// Process output until the process exits.
			var gaveUp state.Marker
			c.read(handle, &gaveUp)
			if killed := handle.Terminate(c.options.ShutdownGracePeriod, protocol.WriteExit); killed {
				c.logger.Warnf("Notifier stopped producing output and was killed")
			}
			c.lock.Lock()
			c.handle = nil
			c.lock.Unlock()

			// Handle shutdowns and voluntary surrender.
			if c.shuttingDown.Marked() {
				return
			} else if gaveUp.Marked() {
				c.setState(StateStopped)
				return
			}

			// Log the exit.
			ranFor := time.Since(handle.Started())
			c.logger.Warnf("Notifier %s after %s", process.DescribeExit(handle.ExitError()), ranFor.Round(time.Millisecond))

			// A sufficiently long run resets the failure count.
			if ranFor >= c.options.StableRunDuration {
				failures = 0
			}
		}

		// Enforce the restart limit.
		failures++
		if failures >= c.options.MaximumStartAttempts {
			c.fail(CauseRestartLimit, fmt.Sprintf("notifier failed %d consecutive times", failures))
			c.setState(StateStopped)
			return
		}

		// Wait before restarting.
		c.setState(StateTerminated)
		restartTimer := time.NewTimer(c.options.RestartDelay)
		select {
		case <-restartTimer.C:
		case <-c.terminate:
			restartTimer.Stop()
			return
		}
	}
}

// read processes a process' output until it's exhausted.
func (c *Client) read(handle *process.Handle, gaveUp *state.Marker) {
	// Create the scanner.
	scanner := bufio.NewScanner(handle.Output())
	scanner.Buffer(make([]byte, 0, 4096), maximumLineLength)

	// Create the decoding state.
	var parser protocol.Parser
	var history protocol.History

	// Process lines.
	for scanner.Scan() {
		event, err := parser.Feed(scanner.Text())
		if err != nil {
			c.logger.Warn(errors.Wrap(err, "invalid notifier output"))
			continue
		} else if event == nil {
			continue
		}
		if event.Op == protocol.OpGiveUp {
			if gaveUp.Mark() {
				c.fail(CauseGiveUp, "notifier gave up")
				go handle.Terminate(c.options.ShutdownGracePeriod, protocol.WriteExit)
			}
			continue
		}
		c.dispatch(event, &history)
	}

	// Log scanning errors. Closed pipes are expected during termination.
	if err := scanner.Err(); err != nil && !c.shuttingDown.Marked() {
		c.logger.Warn(errors.Wrap(err, "unable to read notifier output"))
	}
}

// excluded returns whether or not a path is excluded by the filter.
func (c *Client) excluded(path string) bool {
	return c.options.Filter != nil && c.options.Filter(path)
}

// dispatch processes a single event.
func (c *Client) dispatch(event *protocol.Event, history *protocol.History) {
	// Suppress repetitions of content and attribute changes.
	if event.Op.IsChange() {
		if history.IsRepetition(event.Path) {
			return
		}
	} else {
		history.Reset()
	}

	// Process the event.
	pathMap := c.currentPathMap()
	switch event.Op {
	case protocol.OpReset:
		c.logger.Debug("Notifier requested reset")
		c.resetRoots(pathMap)
	case protocol.OpUnwatchable:
		reported := c.acknowledge(pathMap)
		var unwatchable []string
		for _, path := range event.Paths {
			if originals := reported.OriginalRoots(path); len(originals) > 0 {
				unwatchable = append(unwatchable, originals...)
			} else {
				unwatchable = append(unwatchable, path)
			}
		}
		if len(unwatchable) > 0 {
			c.logger.Debugf("Notifier reported %d unwatchable roots", len(unwatchable))
		}
		if c.callbacks.Unwatchable != nil {
			c.callbacks.Unwatchable(reported, unwatchable)
		}
	case protocol.OpRemap:
		pathMap.AddRemap(event.Pairs)
	case protocol.OpMessage:
		c.logger.Warnf("Notifier message: %s", event.Message)
		c.fail(CauseMessage, event.Message)
	case protocol.OpRecursiveDirty:
		if c.options.RecursiveDirtyPolicy != nil && c.options.RecursiveDirtyPolicy(event.Path) {
			c.logger.Debugf("Escalating recursive dirtiness of %s to reset", event.Path)
			c.resetRoots(pathMap)
			return
		}
		c.record(event.Op, pathMap.WatchedPathsFor(event.Path, true))
	case protocol.OpCreate, protocol.OpDelete:
		c.record(event.Op, pathMap.WatchedPathsFor(event.Path, true))
	case protocol.OpStats, protocol.OpChange, protocol.OpDirty:
		c.record(event.Op, pathMap.WatchedPathsFor(event.Path, false))
	default:
		panic("unhandled operation")
	}
}

// acknowledge dequeues the path map answered by an unwatchable root report.
// Unsolicited reports are attributed to the current path map.
func (c *Client) acknowledge(current *pathmap.Map) *pathmap.Map {
	c.lock.Lock()
	defer c.lock.Unlock()
	if len(c.awaiting) == 0 {
		return current
	}
	reported := c.awaiting[0]
	c.awaiting = c.awaiting[1:]
	return reported
}

// record records an operation for a set of original paths.
func (c *Client) record(op protocol.Op, paths []string) {
	for _, path := range paths {
		if c.excluded(path) {
			continue
		}
		c.logger.Tracef("%s %s", op, path)
		c.aggregator.OnEvent(op, path)
	}
}

// resetRoots marks every watched root as dirty.
func (c *Client) resetRoots(pathMap *pathmap.Map) {
	recursive, flat := pathMap.Roots()
	for _, root := range recursive {
		c.aggregator.OnEvent(protocol.OpReset, root)
	}
	for _, root := range flat {
		c.aggregator.OnFlatReset(root)
	}
}

// Terminate shuts down the client. It requests that the current process exit,
// kills it if it fails to do so within the shutdown grace period, and waits
// for supervision to stop. It is safe to call multiple times.
func (c *Client) Terminate() {
	c.terminateOnce.Do(func() {
		// Mark shutdown and grab the current process.
		c.lock.Lock()
		c.shuttingDown.Mark()
		handle := c.handle
		c.lock.Unlock()
		close(c.terminate)
		c.setState(StateShuttingDown)

		// Terminate the process.
		if handle != nil {
			if killed := handle.Terminate(c.options.ShutdownGracePeriod, protocol.WriteExit); killed {
				c.logger.Warnf("Notifier did not exit within %s and was killed", c.options.ShutdownGracePeriod)
			}
		}

		// Wait for supervision to stop.
		<-c.done
		c.setState(StateStopped)
	})
}
