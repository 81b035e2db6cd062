package filesystem

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// tildeExpand expands a leading ~ or ~user component of a path to the
// corresponding home directory. Any platform path separator terminates the
// user name. Paths without a leading tilde are returned unmodified.
func tildeExpand(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	// Split off the user name.
	name, remainder := path[1:], ""
	if index := strings.IndexFunc(name, func(r rune) bool {
		return r < utf8.RuneSelf && os.IsPathSeparator(uint8(r))
	}); index >= 0 {
		name, remainder = name[:index], name[index+1:]
	}

	// Resolve the home directory.
	var home string
	if name == "" {
		directory, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "unable to compute path to home directory")
		}
		home = directory
	} else {
		account, err := user.Lookup(name)
		if err != nil {
			return "", errors.Wrapf(err, "unable to look up user %s", name)
		}
		home = account.HomeDir
	}

	// Done.
	return filepath.Join(home, remainder), nil
}

// Normalize normalizes a path, expanding home directory tildes, converting it
// to an absolute path, cleaning the result, and trimming any trailing
// separators. It does not resolve symbolic links (see Canonicalize), so the
// result still names the path that the caller asked for.
func Normalize(path string) (string, error) {
	// Expand any leading tilde.
	path, err := tildeExpand(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to perform tilde expansion")
	}

	// Convert to an absolute path. This will also invoke filepath.Clean.
	path, err = filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to compute absolute path")
	}

	// Success.
	return TrimTrailingSeparators(path), nil
}
