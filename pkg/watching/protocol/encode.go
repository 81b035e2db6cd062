package protocol

import (
	"bytes"
	"io"
	"strings"
)

const (
	// CommandRoots introduces a root list.
	CommandRoots = "ROOTS"
	// CommandExit requests graceful termination.
	CommandExit = "EXIT"
)

// EncodeRoots encodes a root-configuration command.
func EncodeRoots(recursive, flat []string) []byte {
	buffer := &bytes.Buffer{}
	buffer.WriteString(CommandRoots)
	buffer.WriteByte('\n')
	for _, path := range recursive {
		buffer.WriteString(EscapePath(path))
		buffer.WriteByte('\n')
	}
	for _, path := range flat {
		buffer.WriteString(FlatPrefix)
		buffer.WriteString(EscapePath(path))
		buffer.WriteByte('\n')
	}
	buffer.WriteString(Terminator)
	buffer.WriteByte('\n')
	return buffer.Bytes()
}

// WriteRoots writes a root-configuration command in a single write.
func WriteRoots(writer io.Writer, recursive, flat []string) error {
	_, err := writer.Write(EncodeRoots(recursive, flat))
	return err
}

// WriteExit writes an exit command.
func WriteExit(writer io.Writer) error {
	_, err := io.WriteString(writer, CommandExit+"\n")
	return err
}

// EncodeEvent encodes an event in the inbound (watcher output) format. It's
// used by watcher implementations.
func EncodeEvent(event *Event) []byte {
	buffer := &bytes.Buffer{}
	buffer.WriteString(event.Op.String())
	buffer.WriteByte('\n')
	switch event.Op.arguments() {
	case argumentsPath:
		buffer.WriteString(EscapePath(event.Path))
		buffer.WriteByte('\n')
	case argumentsText:
		buffer.WriteString(strings.ReplaceAll(event.Message, "\n", " "))
		buffer.WriteByte('\n')
	case argumentsPathList:
		for _, path := range event.Paths {
			buffer.WriteString(EscapePath(path))
			buffer.WriteByte('\n')
		}
		for _, pair := range event.Pairs {
			buffer.WriteString(EscapePath(pair[0]))
			buffer.WriteByte('\n')
			buffer.WriteString(EscapePath(pair[1]))
			buffer.WriteByte('\n')
		}
		buffer.WriteString(Terminator)
		buffer.WriteByte('\n')
	}
	return buffer.Bytes()
}
