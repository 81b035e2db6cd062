//go:build !windows

package cmd

const (
	// statusLineFormat pads or truncates status content to 80 columns, the
	// width of a VT100 terminal.
	statusLineFormat = "\r%-80.80s"
	// statusLineClearFormat prints blank status content and returns the cursor
	// to the start of the line.
	statusLineClearFormat = statusLineFormat + "\r"
)
