package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestStatusLinePrinter(t *testing.T) {
	buffer := &bytes.Buffer{}
	printer := &StatusLinePrinter{Output: buffer}

	printer.Print("Watching 3 roots")
	if !strings.HasPrefix(buffer.String(), "\rWatching 3 roots ") {
		t.Error("unexpected status output:", buffer.String())
	}

	buffer.Reset()
	printer.Println("changed: main.c")
	if !strings.HasSuffix(buffer.String(), "\rchanged: main.c\n") {
		t.Errorf("unexpected line output: %q", buffer.String())
	}

	buffer.Reset()
	printer.BreakIfNonEmpty()
	if buffer.Len() != 0 {
		t.Error("break printed on empty status line")
	}
}
