package cmd

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mutagen-io/fswatch/pkg/fswatch"
	"github.com/mutagen-io/fswatch/pkg/logging"
)

const (
	// logFileMaximumSize is the size in megabytes at which log files rotate.
	logFileMaximumSize = 10
	// logFileMaximumBackups is the number of rotated log files retained.
	logFileMaximumBackups = 3
)

// nopCloser is an io.Closer that does nothing.
type nopCloser struct{}

// Close implements io.Closer.Close.
func (nopCloser) Close() error {
	return nil
}

// ConfigureLogging configures the standard logger and creates a root logger at
// the named level. If path is non-empty, log output is written to a rotated
// log file at that path instead of standard error. The returned closer must be
// invoked once logging is complete.
func ConfigureLogging(levelName, path string) (*logging.Logger, io.Closer, error) {
	// Parse the level.
	level, ok := logging.NameToLevel(levelName)
	if !ok {
		return nil, nil, errors.Errorf("invalid log level: %s", levelName)
	}

	// Set the logging flags. Debug builds include source locations.
	flags := log.LstdFlags | log.Lmicroseconds
	if fswatch.DebugEnabled {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)

	// Set the output destination.
	var closer io.Closer = nopCloser{}
	if path != "" {
		file := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    logFileMaximumSize,
			MaxBackups: logFileMaximumBackups,
			Compress:   true,
		}
		log.SetOutput(file)
		closer = file
	} else {
		log.SetOutput(os.Stderr)
	}

	// Success.
	return logging.NewLogger(level), closer, nil
}
