package native

// State is the supervision state of a Client.
type State uint8

const (
	// StateStopped indicates that no process is running and none will be
	// started.
	StateStopped State = iota
	// StateStarting indicates that a process is being launched.
	StateStarting
	// StateRunning indicates that a process is running and accepting roots.
	StateRunning
	// StateTerminated indicates that the process exited unexpectedly and that
	// a restart is pending.
	StateTerminated
	// StateShuttingDown indicates that the client is being shut down.
	StateShuttingDown
)

// String provides a human-readable representation of a state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	case StateShuttingDown:
		return "shutting down"
	default:
		return "unknown"
	}
}

// Cause identifies the reason for a failure notification.
type Cause uint8

const (
	// CauseStartup indicates that the notifier couldn't be started at all.
	CauseStartup Cause = iota + 1
	// CauseRestartLimit indicates that the notifier failed repeatedly.
	CauseRestartLimit
	// CauseGiveUp indicates that the notifier declared that it can't
	// continue.
	CauseGiveUp
	// CauseMessage indicates a non-fatal diagnostic message from the
	// notifier.
	CauseMessage
)

// String provides a human-readable representation of a cause.
func (c Cause) String() string {
	switch c {
	case CauseStartup:
		return "startup"
	case CauseRestartLimit:
		return "restart limit"
	case CauseGiveUp:
		return "give up"
	case CauseMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Fatal returns whether or not the cause leaves the client non-operational.
func (c Cause) Fatal() bool {
	return c != CauseMessage
}
