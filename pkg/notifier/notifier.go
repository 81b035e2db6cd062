// Package notifier implements a reference native notifier: a process that
// speaks the watcher line protocol on its standard input and output and
// reports filesystem changes observed through fsnotify.
package notifier

import (
	"bufio"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/mutagen-io/fswatch/pkg/filesystem"
	"github.com/mutagen-io/fswatch/pkg/logging"
	"github.com/mutagen-io/fswatch/pkg/watching/protocol"
)

// ErrWatchLimit indicates that the notifier gave up because watch resources
// were exhausted.
var ErrWatchLimit = errors.New("watch resources exhausted")

// errGiveUp is used internally to abort walks once watch resources are
// exhausted.
var errGiveUp = errors.New("giving up")

// notifier is the notifier state. It is confined to the Goroutine executing
// Run.
type notifier struct {
	// watcher is the underlying fsnotify watcher.
	watcher *fsnotify.Watcher
	// emitter writes protocol output.
	emitter *emitter
	// logger is the notifier's logger.
	logger *logging.Logger
	// trees are the paths whose whole subtree is watched. These include the
	// recursive roots and the targets of symbolic links found beneath them.
	trees []string
	// watched is the set of paths registered with the watcher.
	watched map[string]bool
	// remaps are the (link, target) pairs discovered during the latest walk.
	remaps [][2]string
}

// readCommands reads commands from input and forwards them. The commands
// channel is closed once input is exhausted.
func readCommands(input io.Reader, commands chan<- *protocol.Command, done <-chan struct{}, logger *logging.Logger) {
	defer close(commands)
	var parser protocol.CommandParser
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		command, err := parser.Feed(scanner.Text())
		if err != nil {
			logger.Warn(errors.Wrap(err, "invalid command"))
			continue
		} else if command == nil {
			continue
		}
		select {
		case commands <- command:
		case <-done:
			return
		}
	}
}

// Run runs the notifier, reading commands from input and writing operations to
// output. It returns nil once an EXIT command is received, input is exhausted,
// or the context is cancelled. If watch resources are exhausted, it reports
// GIVEUP and returns ErrWatchLimit.
func Run(ctx context.Context, input io.Reader, output io.Writer, logger *logging.Logger) error {
	// Create the watcher. If we can't, then there's no point in continuing.
	emitter := newEmitter(output)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		emitter.emit(protocol.OpGiveUp, "")
		return errors.Wrap(err, "unable to create watcher")
	}
	defer watcher.Close()

	// Create the notifier state.
	n := &notifier{
		watcher: watcher,
		emitter: emitter,
		logger:  logger,
		watched: make(map[string]bool),
	}

	// Start reading commands.
	commands := make(chan *protocol.Command)
	done := make(chan struct{})
	defer close(done)
	go readCommands(input, commands, done, logger)

	// Process commands and events.
	for {
		select {
		case <-ctx.Done():
			return nil
		case command, ok := <-commands:
			if !ok || command.Exit {
				return nil
			}
			if err := n.setRoots(command.Recursive, command.Flat); err == errGiveUp {
				return ErrWatchLimit
			} else if err != nil {
				return err
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher event stream closed")
			}
			if err := n.handle(event); err == errGiveUp {
				return ErrWatchLimit
			} else if err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher error stream closed")
			}
			if err := n.handleError(err); err != nil {
				return err
			}
		}
	}
}

// add registers a path with the watcher. It returns errGiveUp (after emitting
// GIVEUP) if watch resources are exhausted.
func (n *notifier) add(path string) error {
	if n.watched[path] {
		return nil
	}
	if err := n.watcher.Add(path); err != nil {
		if isWatchLimit(err) {
			n.logger.Warn(errors.Wrap(err, "unable to add watch"))
			n.emitter.emit(protocol.OpGiveUp, "")
			return errGiveUp
		}
		return err
	}
	n.watched[path] = true
	return nil
}

// inTree returns whether or not a path lies within a recursively watched
// tree.
func (n *notifier) inTree(path string) bool {
	for _, tree := range n.trees {
		if filesystem.IsAncestor(tree, path, false) {
			return true
		}
	}
	return false
}

// walk registers every directory beneath root. Symbolic links to directories
// outside of the existing trees are followed, recorded as remaps, and walked
// themselves.
func (n *notifier) walk(root string) error {
	var links [][2]string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			n.logger.Debugf("Unable to access %s: %v", path, err)
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			if target, err := filepath.EvalSymlinks(path); err == nil {
				if info, err := os.Stat(target); err == nil && info.IsDir() && !n.inTree(target) {
					links = append(links, [2]string{path, target})
				}
			}
			return nil
		}
		if !entry.IsDir() && path != root {
			return nil
		}
		if err := n.add(path); err == errGiveUp {
			return err
		} else if err != nil {
			if path == root {
				return err
			}
			n.logger.Debugf("Unable to watch %s: %v", path, err)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Follow links.
	for _, link := range links {
		if n.inTree(link[1]) {
			continue
		}
		n.trees = append(n.trees, link[1])
		n.remaps = append(n.remaps, link)
		if err := n.walk(link[1]); err == errGiveUp {
			return err
		} else if err != nil {
			n.logger.Debugf("Unable to watch link target %s: %v", link[1], err)
		}
	}
	return nil
}

// setRoots replaces the watched roots and reports unwatchable roots and
// remaps.
func (n *notifier) setRoots(recursive, flat []string) error {
	// Remove existing watches.
	for path := range n.watched {
		n.watcher.Remove(path)
	}
	n.watched = make(map[string]bool)
	n.trees = append([]string(nil), recursive...)
	n.remaps = nil

	// Watch recursive roots. Roots that are themselves symbolic links are
	// watched through their targets.
	var unwatchable []string
	for _, root := range recursive {
		target := root
		if resolved, err := filepath.EvalSymlinks(root); err == nil && resolved != root {
			n.trees = append(n.trees, resolved)
			n.remaps = append(n.remaps, [2]string{root, resolved})
			target = resolved
		}
		if err := n.walk(target); err == errGiveUp {
			return err
		} else if err != nil {
			n.logger.Debugf("Unable to watch recursive root %s: %v", root, err)
			unwatchable = append(unwatchable, root)
		}
	}

	// Watch flat roots.
	for _, root := range flat {
		if err := n.add(root); err == errGiveUp {
			return err
		} else if err != nil {
			n.logger.Debugf("Unable to watch flat root %s: %v", root, err)
			unwatchable = append(unwatchable, root)
		}
	}

	// Report the results.
	sort.Strings(unwatchable)
	if err := n.emitter.emitList(protocol.OpUnwatchable, unwatchable); err != nil {
		return errors.Wrap(err, "unable to write output")
	}
	if len(n.remaps) > 0 {
		if err := n.emitter.emitRemaps(n.remaps); err != nil {
			return errors.Wrap(err, "unable to write output")
		}
	}
	n.logger.Debugf("Watching %d paths", len(n.watched))
	return nil
}

// handle processes a single filesystem event.
func (n *notifier) handle(event fsnotify.Event) error {
	// Handle creations. New directories within trees are registered before
	// the creation is reported, so that anything created within them after the
	// report is observed.
	var err error
	switch {
	case event.Has(fsnotify.Create):
		if n.inTree(event.Name) {
			if info, statErr := os.Lstat(event.Name); statErr == nil && info.IsDir() {
				if walkErr := n.walk(event.Name); walkErr == errGiveUp {
					return walkErr
				}
			}
		}
		err = n.emitter.emit(protocol.OpCreate, event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if n.watched[event.Name] {
			n.watcher.Remove(event.Name)
			delete(n.watched, event.Name)
		}
		err = n.emitter.emit(protocol.OpDelete, event.Name)
	case event.Has(fsnotify.Write):
		err = n.emitter.emit(protocol.OpChange, event.Name)
	case event.Has(fsnotify.Chmod):
		err = n.emitter.emit(protocol.OpStats, event.Name)
	}
	if err != nil {
		return errors.Wrap(err, "unable to write output")
	}
	return nil
}

// handleError processes a watcher error.
func (n *notifier) handleError(err error) error {
	var emitErr error
	if errors.Is(err, fsnotify.ErrEventOverflow) {
		n.logger.Debug("Event queue overflowed")
		emitErr = n.emitter.emit(protocol.OpReset, "")
	} else {
		n.logger.Warn(errors.Wrap(err, "watcher error"))
		emitErr = n.emitter.emitMessage(err.Error())
	}
	if emitErr != nil {
		return errors.Wrap(emitErr, "unable to write output")
	}
	return nil
}
