//go:build !windows

package native

import (
	"io/fs"
)

// isExecutable returns whether or not a file mode has any execute bit set.
func isExecutable(mode fs.FileMode) bool {
	return mode&0111 != 0
}
