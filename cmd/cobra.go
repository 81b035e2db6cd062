package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ExitError is an error that requests a specific process exit code. Its
// message (if any) has already been reported by the time it's returned.
type ExitError struct {
	// Code is the requested exit code.
	Code int
}

// Error implements error.Error.
func (e *ExitError) Error() string {
	return "exit requested"
}

// Mainify wraps an error-returning entry point and generates a standard Cobra
// entry point. This lets entry points rely on defer-based cleanup, which
// wouldn't occur if they terminated the process themselves. Errors are
// reported and result in a non-zero exit code.
func Mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			var exit *ExitError
			if errors.As(err, &exit) {
				os.Exit(exit.Code)
			}
			Fatal(err)
		}
	}
}
