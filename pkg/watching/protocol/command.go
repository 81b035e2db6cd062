package protocol

import (
	"strings"

	"github.com/pkg/errors"
)

// Command is a parsed command sent to a native watcher.
type Command struct {
	// Exit indicates an exit request. If false, the command is a root
	// configuration.
	Exit bool
	// Recursive are the recursive roots of a root configuration.
	Recursive []string
	// Flat are the flat roots of a root configuration.
	Flat []string
}

// CommandParser converts watcher input lines into commands. It's the watcher
// side counterpart of EncodeRoots and WriteExit. It is not safe for concurrent
// usage.
type CommandParser struct {
	// roots is the root configuration being read, if any.
	roots *Command
}

// Feed processes a single line of input (without its trailing newline) and
// returns a command once one is complete.
func (p *CommandParser) Feed(line string) (*Command, error) {
	// Handle lines outside of a root list.
	if p.roots == nil {
		switch line {
		case CommandRoots:
			p.roots = &Command{}
			return nil, nil
		case CommandExit:
			return &Command{Exit: true}, nil
		default:
			return nil, errors.Errorf("unknown command: %q", line)
		}
	}

	// Handle root list lines.
	if line == Terminator {
		command := p.roots
		p.roots = nil
		return command, nil
	} else if strings.HasPrefix(line, FlatPrefix) {
		p.roots.Flat = append(p.roots.Flat, UnescapePath(line[len(FlatPrefix):]))
	} else if line != "" {
		p.roots.Recursive = append(p.roots.Recursive, UnescapePath(line))
	}
	return nil, nil
}
