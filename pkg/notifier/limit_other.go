//go:build windows || plan9

package notifier

// isWatchLimit returns whether or not an error indicates that watch resources
// have been exhausted. Watch resources aren't limited on this platform.
func isWatchLimit(_ error) bool {
	return false
}
