package process

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Handle wraps a running child process that communicates over its standard
// input and output. Standard output is delivered through an OS pipe owned by
// the handle (rather than one managed by os/exec) so that waiting for the
// process and reading its output can proceed independently.
type Handle struct {
	// process is the underlying process.
	process *exec.Cmd
	// standardInput is the destination for process input data.
	standardInput io.WriteCloser
	// standardOutput is the source for process output data.
	standardOutput *os.File
	// started is the time at which the process was started.
	started time.Time
	// exited is closed once the process has exited.
	exited chan struct{}
	// exitError is the result of waiting for the process. It may only be read
	// once exited is closed.
	exitError error
	// writeLock serializes writes to standard input.
	writeLock sync.Mutex
	// terminateOnce ensures that termination only happens once.
	terminateOnce sync.Once
}

// Start launches the specified executable with the specified arguments. The
// process inherits the current working directory and environment (extended by
// environment, if non-empty, which contains KEY=value entries). Standard
// error output is copied to stderr, which may be nil to discard it.
func Start(path string, arguments []string, environment []string, stderr io.Writer) (*Handle, error) {
	// Create the command.
	process := exec.Command(path, arguments...)
	process.SysProcAttr = IsolatedProcessAttributes()
	if len(environment) > 0 {
		process.Env = append(os.Environ(), environment...)
	}
	process.Stderr = stderr

	// Redirect the process' standard input.
	standardInput, err := process.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to redirect process input")
	}

	// Create the standard output pipe.
	outputReader, outputWriter, err := os.Pipe()
	if err != nil {
		standardInput.Close()
		return nil, errors.Wrap(err, "unable to create output pipe")
	}
	process.Stdout = outputWriter

	// Start the process. Once started, we can close our copy of the pipe's
	// write end, so that reads see EOF once the process exits.
	if err := process.Start(); err != nil {
		standardInput.Close()
		outputReader.Close()
		outputWriter.Close()
		return nil, errors.Wrap(err, "unable to start process")
	}
	outputWriter.Close()

	// Create the handle.
	handle := &Handle{
		process:        process,
		standardInput:  standardInput,
		standardOutput: outputReader,
		started:        time.Now(),
		exited:         make(chan struct{}),
	}

	// Wait for the process in the background.
	go func() {
		handle.exitError = process.Wait()
		close(handle.exited)
	}()

	// Success.
	return handle, nil
}

// Output returns the process' standard output stream. It reports EOF once the
// process exits (or once the handle is terminated).
func (h *Handle) Output() io.Reader {
	return h.standardOutput
}

// Write writes data to the process' standard input. Concurrent writes are
// serialized so that multi-line commands aren't interleaved.
func (h *Handle) Write(data []byte) (int, error) {
	h.writeLock.Lock()
	defer h.writeLock.Unlock()
	return h.standardInput.Write(data)
}

// PID returns the process identifier.
func (h *Handle) PID() int {
	return h.process.Process.Pid
}

// Started returns the time at which the process was started.
func (h *Handle) Started() time.Time {
	return h.started
}

// Exited returns a channel that is closed once the process has exited.
func (h *Handle) Exited() <-chan struct{} {
	return h.exited
}

// ExitError returns the process' wait result. It blocks until the process has
// exited.
func (h *Handle) ExitError() error {
	<-h.exited
	return h.exitError
}

// Terminate shuts down the process. It first invokes farewell (if non-nil)
// with the process' standard input, allowing a graceful exit to be requested,
// and then waits up to gracePeriod for the process to exit on its own before
// killing it. By the time this method returns, the process is guaranteed to no
// longer be running. It returns whether or not the process had to be killed.
// Subsequent calls have no effect and return false.
func (h *Handle) Terminate(gracePeriod time.Duration, farewell func(io.Writer) error) bool {
	// Validate the grace period.
	if gracePeriod < 0 {
		panic("negative grace period specified")
	}

	// Perform termination at most once.
	var killed bool
	h.terminateOnce.Do(func() {
		// Request a graceful exit. Failure here (e.g. because the process has
		// already exited) just means that we'll fall through to the wait.
		if farewell != nil {
			farewell(h)
		}

		// Wait, up to the specified duration, for the process to exit.
		gracePeriodTimer := time.NewTimer(gracePeriod)
		defer gracePeriodTimer.Stop()
		select {
		case <-h.exited:
		case <-gracePeriodTimer.C:
			// HACK: We don't handle kill errors, because there's not much we
			// can do with the information. The wait below enforces that the
			// process is gone by the time we return.
			h.process.Process.Kill()
			killed = true
			<-h.exited
		}

		// Close our ends of the pipes. This unblocks any reader even if the
		// process has left behind descendants holding the output pipe open.
		h.standardInput.Close()
		h.standardOutput.Close()
	})
	return killed
}
