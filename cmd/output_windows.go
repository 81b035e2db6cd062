package cmd

const (
	// statusLineFormat pads or truncates status content to 79 columns. Console
	// carriage returns stop working once the final column has been written.
	statusLineFormat = "\r%-79.79s"
	// statusLineClearFormat prints blank status content and returns the cursor
	// to the start of the line.
	statusLineClearFormat = statusLineFormat + "\r"
)
