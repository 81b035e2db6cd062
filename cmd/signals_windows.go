package cmd

import (
	"os"
	"syscall"
)

// TerminationSignals are the signals treated as termination requests. Go
// emulates SIGINT for Ctrl-C and Ctrl-Break and SIGTERM for console close,
// logoff, and shutdown events.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
