package native

import (
	"io/fs"
)

// isExecutable always returns true on Windows, where executability is
// determined by extension.
func isExecutable(_ fs.FileMode) bool {
	return true
}
