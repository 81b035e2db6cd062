package logging

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

// captureStandardLogger redirects the standard logger to a buffer for the
// duration of a test.
func captureStandardLogger(t *testing.T) *bytes.Buffer {
	buffer := &bytes.Buffer{}
	flags := log.Flags()
	log.SetOutput(buffer)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return buffer
}

func TestNilLoggerIsSilent(t *testing.T) {
	var logger *Logger
	logger.Info("ignored")
	logger.Error(nil)
	if logger.Sublogger("child") != nil {
		t.Error("sublogger of nil logger is non-nil")
	}
	if logger.Level() != LevelDisabled {
		t.Error("nil logger reports non-disabled level")
	}
}

func TestSubloggerPrefix(t *testing.T) {
	output := captureStandardLogger(t)
	logger := NewLogger(LevelInfo).Sublogger("native").Sublogger("client")
	logger.Info("started")
	if !strings.Contains(output.String(), "[native.client] started") {
		t.Error("unexpected log output:", output.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	output := captureStandardLogger(t)
	logger := NewLogger(LevelWarn)
	logger.Debugf("hidden %d", 1)
	logger.Info("hidden")
	if output.Len() != 0 {
		t.Error("messages above logger level were emitted:", output.String())
	}
}

func TestWriterSplitsLines(t *testing.T) {
	output := captureStandardLogger(t)
	writer := NewLogger(LevelDebug).Sublogger("stderr").Writer(LevelDebug)
	writer.Write([]byte("first\r\nsec"))
	writer.Write([]byte("ond\npartial"))
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 2 {
		t.Fatal("unexpected number of lines:", len(lines))
	}
	if lines[0] != "[stderr] first" || lines[1] != "[stderr] second" {
		t.Error("unexpected lines:", lines)
	}
}
