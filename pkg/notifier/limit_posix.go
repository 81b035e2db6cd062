//go:build !windows && !plan9

package notifier

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// isWatchLimit returns whether or not an error indicates that watch resources
// have been exhausted.
func isWatchLimit(err error) bool {
	return errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EMFILE)
}
