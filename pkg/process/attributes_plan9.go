package process

import (
	"syscall"
)

// IsolatedProcessAttributes returns the process attributes to use for starting
// supervised child processes. Plan 9 doesn't support process groups in the
// same sense, so no special attributes are used.
func IsolatedProcessAttributes() *syscall.SysProcAttr {
	return nil
}
