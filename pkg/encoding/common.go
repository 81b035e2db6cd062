package encoding

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// maximumFileSize is the largest file that LoadAndUnmarshal will read.
const maximumFileSize = 1 << 20

// LoadAndUnmarshal reads the file at path and decodes it with unmarshal.
// Non-existence errors are returned unwrapped so that callers can detect them
// with os.IsNotExist. Files larger than 1 MiB are rejected.
func LoadAndUnmarshal(path string, unmarshal func([]byte) error) error {
	// Open the file.
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return errors.Wrap(err, "unable to open file")
	}
	defer file.Close()

	// Read its contents, up to the size limit.
	data, err := io.ReadAll(io.LimitReader(file, maximumFileSize+1))
	if err != nil {
		return errors.Wrap(err, "unable to read file")
	} else if len(data) > maximumFileSize {
		return errors.Errorf("file exceeds maximum size (%d bytes)", maximumFileSize)
	}

	// Decode the contents.
	if err := unmarshal(data); err != nil {
		return errors.Wrap(err, "unable to unmarshal data")
	}

	// Success.
	return nil
}
