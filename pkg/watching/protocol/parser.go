package protocol

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mutagen-io/fswatch/pkg/filesystem"
)

const (
	// Terminator is the line terminating root lists and path lists.
	Terminator = "#"
	// FlatPrefix is the prefix identifying flat roots in a root list.
	FlatPrefix = "|"
)

// Event is a fully parsed watcher operation.
type Event struct {
	// Op is the operation.
	Op Op
	// Path is the operation's path for single-path operations.
	Path string
	// Paths is the path list for OpUnwatchable.
	Paths []string
	// Pairs are the (original, canonical) pairs for OpRemap.
	Pairs [][2]string
	// Message is the message text for OpMessage.
	Message string
}

// UnescapePath converts a path line from the wire into a path. NUL bytes stand
// in for newlines embedded in names and trailing separators are removed.
func UnescapePath(line string) string {
	return filesystem.TrimTrailingSeparators(strings.ReplaceAll(line, "\x00", "\n"))
}

// EscapePath converts a path to its wire representation.
func EscapePath(path string) string {
	return strings.ReplaceAll(path, "\n", "\x00")
}

// Parser converts watcher output lines into events. It is a small state machine
// tracking the operation whose arguments are being read. It is not safe for
// concurrent usage.
type Parser struct {
	// pending is the operation whose argument lines are being read, if any.
	pending Op
	// lines are the argument lines accumulated for list operations.
	lines []string
	// empty indicates that the current list contained an empty path line.
	empty bool
}

// Feed processes a single line of output (without its trailing newline). It
// returns an event once one is complete. Unknown operation tokens, empty path
// lines, and malformed argument lists produce an error, but the parser remains
// usable and resynchronizes on the next line. Empty entries in an unwatchable
// list are dropped, so the acknowledgement itself is still delivered.
func (p *Parser) Feed(line string) (*Event, error) {
	// Handle lines that start a new operation.
	if p.pending == 0 {
		op, ok := ParseOp(line)
		if !ok {
			return nil, errors.Errorf("unknown operation: %q", line)
		}
		if op.arguments() == argumentsNone {
			return &Event{Op: op}, nil
		}
		p.pending = op
		return nil, nil
	}

	// Handle argument lines.
	op := p.pending
	switch op.arguments() {
	case argumentsPath:
		p.pending = 0
		if line == "" {
			return nil, errors.Errorf("empty path for %s", op)
		}
		return &Event{Op: op, Path: UnescapePath(line)}, nil
	case argumentsText:
		p.pending = 0
		return &Event{Op: op, Message: line}, nil
	case argumentsPathList:
		if line != Terminator {
			if line == "" {
				p.empty = true
			} else {
				p.lines = append(p.lines, UnescapePath(line))
			}
			return nil, nil
		}
		lines, empty := p.lines, p.empty
		p.pending, p.lines, p.empty = 0, nil, false
		if op == OpUnwatchable {
			return &Event{Op: op, Paths: lines}, nil
		}
		if empty {
			return nil, errors.Errorf("empty path in %s list", op)
		}
		if len(lines)%2 != 0 {
			return nil, errors.Errorf("odd number of remap lines (%d)", len(lines))
		}
		pairs := make([][2]string, 0, len(lines)/2)
		for i := 0; i < len(lines); i += 2 {
			pairs = append(pairs, [2]string{lines[i], lines[i+1]})
		}
		return &Event{Op: op, Pairs: pairs}, nil
	default:
		panic("unhandled argument shape")
	}
}
