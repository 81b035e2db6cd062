//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// TerminationSignals are the signals treated as termination requests. SIGHUP
// is included so that watchers attached to a closed terminal shut down their
// notifier processes.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
}
