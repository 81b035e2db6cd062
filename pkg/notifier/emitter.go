package notifier

import (
	"io"

	"github.com/mutagen-io/fswatch/pkg/watching/protocol"
)

// emitter writes watcher operations to the notifier's output. It retains the
// first write error and fails all subsequent writes with it. It is not safe
// for concurrent usage.
type emitter struct {
	// output is the notifier's output.
	output io.Writer
	// err is the first write error encountered.
	err error
}

// newEmitter creates a new emitter.
func newEmitter(output io.Writer) *emitter {
	return &emitter{output: output}
}

// write encodes and writes a single event.
func (e *emitter) write(event *protocol.Event) error {
	if e.err == nil {
		_, e.err = e.output.Write(protocol.EncodeEvent(event))
	}
	return e.err
}

// emit writes an operation along with its path, if the operation takes one.
func (e *emitter) emit(op protocol.Op, path string) error {
	return e.write(&protocol.Event{Op: op, Path: path})
}

// emitList writes an operation with a terminated path list.
func (e *emitter) emitList(op protocol.Op, paths []string) error {
	return e.write(&protocol.Event{Op: op, Paths: paths})
}

// emitRemaps writes (link, target) remapping pairs.
func (e *emitter) emitRemaps(pairs [][2]string) error {
	return e.write(&protocol.Event{Op: protocol.OpRemap, Pairs: pairs})
}

// emitMessage writes a diagnostic message.
func (e *emitter) emitMessage(message string) error {
	return e.write(&protocol.Event{Op: protocol.OpMessage, Message: message})
}
