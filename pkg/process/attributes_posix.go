//go:build !windows && !plan9

package process

import (
	"syscall"
)

// IsolatedProcessAttributes returns the process attributes to use for starting
// supervised child processes. The child is placed in its own process group so
// that terminal-generated signals (e.g. Ctrl-C) are delivered only to the
// supervisor, which can then shut the child down gracefully.
func IsolatedProcessAttributes() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}
