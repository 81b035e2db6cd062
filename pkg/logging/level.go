package logging

import (
	"github.com/pkg/errors"
)

// Level is a log level. Levels are ordered: a logger at a given level emits
// messages at that level and all lower levels.
type Level uint

const (
	// LevelDisabled disables logging.
	LevelDisabled Level = iota
	// LevelError logs fatal errors.
	LevelError
	// LevelWarn additionally logs non-fatal errors.
	LevelWarn
	// LevelInfo additionally logs basic execution information.
	LevelInfo
	// LevelDebug additionally logs detailed execution information.
	LevelDebug
	// LevelTrace additionally logs low-level execution information, such as
	// individual watch events.
	LevelTrace
)

// levelNames are the level names, indexed by level.
var levelNames = [...]string{
	LevelDisabled: "disabled",
	LevelError:    "error",
	LevelWarn:     "warn",
	LevelInfo:     "info",
	LevelDebug:    "debug",
	LevelTrace:    "trace",
}

// NameToLevel converts a level name to a Level. It returns false (along with
// LevelDisabled) if the name is invalid.
func NameToLevel(name string) (Level, bool) {
	for level, levelName := range levelNames {
		if levelName == name {
			return Level(level), true
		}
	}
	return LevelDisabled, false
}

// String returns the level's name.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	level, ok := NameToLevel(string(text))
	if !ok {
		return errors.Errorf("unknown log level: %s", text)
	}
	*l = level
	return nil
}
