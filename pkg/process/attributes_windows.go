package process

import (
	"syscall"
)

// IsolatedProcessAttributes returns the process attributes to use for starting
// supervised child processes. The child is placed in its own process group so
// that console control events are delivered only to the supervisor.
func IsolatedProcessAttributes() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
