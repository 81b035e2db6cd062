package process

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// ExecutableName returns the file name used for an executable with the
// specified base name on the specified operating system.
func ExecutableName(base, goos string) string {
	if goos == "windows" {
		return base + ".exe"
	}
	return base
}

// FindCommand locates the named executable within an explicit list of
// directories, returning the first regular file found. Unlike exec.LookPath,
// it doesn't consult PATH itself, so callers control the search order. Empty
// directory entries are ignored.
func FindCommand(name string, directories []string) (string, error) {
	executable := ExecutableName(name, runtime.GOOS)
	for _, directory := range directories {
		if directory == "" {
			continue
		}
		candidate := filepath.Join(directory, executable)
		info, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return "", errors.Wrapf(err, "unable to probe %s", candidate)
		} else if info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", errors.Errorf("%s not found in %d directories", executable, len(directories))
}
