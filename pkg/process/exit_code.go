package process

import (
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
)

// ExitCodeForError extracts the process exit code from an error returned by
// waiting on a process. It returns an error if the error doesn't carry an exit
// code (e.g. if it's nil or if the process couldn't be waited on). Processes
// terminated by a signal report -1.
func ExitCodeForError(err error) (int, error) {
	var exitErr *exec.ExitError
	if err == nil {
		return 0, errors.New("nil error has no exit code")
	} else if !errors.As(err, &exitErr) {
		return 0, errors.New("error is not a process exit error")
	}
	return exitErr.ExitCode(), nil
}

// DescribeExit provides a human-readable description of a process wait
// result.
func DescribeExit(err error) string {
	if err == nil {
		return "exited normally"
	} else if code, codeErr := ExitCodeForError(err); codeErr != nil {
		return err.Error()
	} else if code < 0 {
		return "terminated by signal"
	} else {
		return "exited with code " + strconv.Itoa(code)
	}
}
