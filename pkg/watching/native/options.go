package native

import (
	"time"

	"github.com/mutagen-io/fswatch/pkg/logging"
	"github.com/mutagen-io/fswatch/pkg/watching/pathmap"
)

const (
	// DefaultMaximumStartAttempts is the default number of consecutive failed
	// launches after which the client gives up.
	DefaultMaximumStartAttempts = 10
	// DefaultStableRunDuration is the default time after which a running
	// process is considered to have started successfully.
	DefaultStableRunDuration = 5 * time.Second
	// DefaultRestartDelay is the default delay before restarting a process that
	// exited unexpectedly.
	DefaultRestartDelay = 100 * time.Millisecond
	// DefaultShutdownGracePeriod is the default time to wait for a process to
	// exit after requesting it to do so.
	DefaultShutdownGracePeriod = 50 * time.Millisecond
	// maximumLineLength is the maximum length of a line of notifier output.
	maximumLineLength = 1 << 20
)

// RecursiveDirtyPolicy decides whether a recursive dirtiness notification for
// the specified path should be escalated to a full reset of all roots. It's a
// hook for notifiers whose coarse-grained recursive notifications are known to
// be unreliable on a given platform; it's called on the output Goroutine and
// must not block.
type RecursiveDirtyPolicy func(path string) bool

// EscalateAlways is a RecursiveDirtyPolicy that always escalates.
func EscalateAlways(string) bool {
	return true
}

// Callbacks are the notifications delivered by a Client. All callbacks are
// optional, may be invoked from internal Goroutines, and must not block.
type Callbacks struct {
	// Unwatchable receives the original roots that a notifier process reported
	// as unwatchable, along with the path map whose roots the report answers.
	// It's invoked once per root configuration acknowledged by each process.
	Unwatchable func(pathMap *pathmap.Map, roots []string)
	// Failure receives failure notifications. Fatal causes are delivered at
	// most once per client.
	Failure func(cause Cause, message string)
	// StateChanged is invoked after every supervision state change.
	StateChanged func(state State)
}

// Options configures a Client.
type Options struct {
	// Executable is the path to the notifier executable.
	Executable string
	// Environment contains additional KEY=value environment entries for the
	// notifier process.
	Environment []string
	// MaximumStartAttempts is the number of consecutive failed launches after
	// which the client gives up. Non-positive values select the default.
	MaximumStartAttempts int
	// StableRunDuration is the run time after which a process is considered to
	// have started successfully, resetting the failed launch count.
	// Non-positive values select the default.
	StableRunDuration time.Duration
	// RestartDelay is the delay before restarting. Negative values select the
	// default.
	RestartDelay time.Duration
	// ShutdownGracePeriod is the time to wait for a graceful exit before
	// killing the process. Non-positive values select the default.
	ShutdownGracePeriod time.Duration
	// Filter excludes paths from being recorded if it returns true. It may be
	// nil.
	Filter func(path string) bool
	// RecursiveDirtyPolicy is the escalation policy for recursive dirtiness
	// notifications. It may be nil, in which case nothing is escalated.
	RecursiveDirtyPolicy RecursiveDirtyPolicy
	// Logger is the logger to use. It may be nil.
	Logger *logging.Logger
}

// withDefaults returns a copy of the options with defaults applied.
func (o Options) withDefaults() Options {
	if o.MaximumStartAttempts <= 0 {
		o.MaximumStartAttempts = DefaultMaximumStartAttempts
	}
	if o.StableRunDuration <= 0 {
		o.StableRunDuration = DefaultStableRunDuration
	}
	if o.RestartDelay < 0 {
		o.RestartDelay = DefaultRestartDelay
	}
	if o.ShutdownGracePeriod <= 0 {
		o.ShutdownGracePeriod = DefaultShutdownGracePeriod
	}
	return o
}
