package process

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"testing"
	"time"
)

const (
	// helperModeEnvironmentVariable selects the behavior of the test binary
	// when it's re-executed as a child process.
	helperModeEnvironmentVariable = "FSWATCH_PROCESS_TEST_HELPER"
)

// TestMain allows the test binary to act as a child process for the tests in
// this package.
func TestMain(m *testing.M) {
	switch mode := os.Getenv(helperModeEnvironmentVariable); mode {
	case "":
		os.Exit(m.Run())
	case "echo":
		// Echo lines until EXIT or EOF.
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if scanner.Text() == "EXIT" {
				os.Exit(0)
			}
			fmt.Println(scanner.Text())
		}
		os.Exit(0)
	case "stubborn":
		// Ignore standard input entirely and never exit on our own.
		fmt.Println("ready")
		time.Sleep(time.Hour)
		os.Exit(0)
	default:
		code, _ := strconv.Atoi(mode)
		os.Exit(code)
	}
}

// startHelper starts the test binary in the specified helper mode.
func startHelper(t *testing.T, mode string) *Handle {
	handle, err := Start(os.Args[0], nil, []string{helperModeEnvironmentVariable + "=" + mode}, nil)
	if err != nil {
		t.Fatal("unable to start helper process:", err)
	}
	return handle
}

// exitCommand is a farewell callback that requests a graceful exit.
func exitCommand(writer io.Writer) error {
	_, err := io.WriteString(writer, "EXIT\n")
	return err
}

func TestHandleEchoAndGracefulExit(t *testing.T) {
	handle := startHelper(t, "echo")
	if _, err := handle.Write([]byte("hello\n")); err != nil {
		t.Fatal("unable to write to process:", err)
	}
	reader := bufio.NewReader(handle.Output())
	if line, err := reader.ReadString('\n'); err != nil {
		t.Fatal("unable to read from process:", err)
	} else if line != "hello\n" {
		t.Errorf("unexpected output: %q", line)
	}
	if handle.Terminate(5*time.Second, exitCommand) {
		t.Error("process required killing")
	}
	if err := handle.ExitError(); err != nil {
		t.Error("unexpected exit error:", err)
	}
	if handle.Terminate(0, nil) {
		t.Error("second termination reported a kill")
	}
}

func TestHandleKillAfterGracePeriod(t *testing.T) {
	handle := startHelper(t, "stubborn")
	reader := bufio.NewReader(handle.Output())
	if _, err := reader.ReadString('\n'); err != nil {
		t.Fatal("unable to read readiness line:", err)
	}
	if !handle.Terminate(50*time.Millisecond, exitCommand) {
		t.Error("process was not killed")
	}
	select {
	case <-handle.Exited():
	default:
		t.Error("process not reported as exited after termination")
	}
}

func TestHandleOutputEOFOnExit(t *testing.T) {
	handle := startHelper(t, "3")
	if _, err := io.ReadAll(handle.Output()); err != nil {
		t.Error("unexpected read error:", err)
	}
	code, err := ExitCodeForError(handle.ExitError())
	if err != nil {
		t.Fatal("unable to extract exit code:", err)
	} else if code != 3 {
		t.Error("unexpected exit code:", code)
	}
	if description := DescribeExit(handle.ExitError()); description != "exited with code 3" {
		t.Error("unexpected exit description:", description)
	}
	handle.Terminate(0, nil)
}

func TestStartNonExistentExecutable(t *testing.T) {
	if _, err := Start("/this/does/not/exist", nil, nil, nil); err == nil {
		t.Error("starting non-existent executable succeeded")
	}
}
