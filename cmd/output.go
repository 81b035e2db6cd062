package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// StatusLinePrinter prints a dynamically updated status line. It supports
// colorized messages. It is not safe for concurrent usage.
type StatusLinePrinter struct {
	// Output is the destination for status output. If nil, color.Output is
	// used.
	Output io.Writer
	// nonEmpty indicates whether or not the status line currently has content.
	nonEmpty bool
}

// output returns the printer's destination.
func (p *StatusLinePrinter) output() io.Writer {
	if p.Output != nil {
		return p.Output
	}
	return color.Output
}

// Print replaces the status line content with the message. Messages are
// truncated or padded to a platform-dependent width so that the previous
// content is fully overwritten.
func (p *StatusLinePrinter) Print(message string) {
	fmt.Fprintf(p.output(), statusLineFormat, message)
	p.nonEmpty = true
}

// Clear wipes the status line and returns the cursor to its start.
func (p *StatusLinePrinter) Clear() {
	fmt.Fprintf(p.output(), statusLineClearFormat, "")
	p.nonEmpty = false
}

// Println prints a permanent line above the status line. The status line is
// cleared first and must be reprinted afterward.
func (p *StatusLinePrinter) Println(line string) {
	if p.nonEmpty {
		p.Clear()
	}
	fmt.Fprintln(p.output(), line)
}

// BreakIfNonEmpty moves to a new line if the status line has content.
func (p *StatusLinePrinter) BreakIfNonEmpty() {
	if p.nonEmpty {
		fmt.Fprintln(p.output())
		p.nonEmpty = false
	}
}
