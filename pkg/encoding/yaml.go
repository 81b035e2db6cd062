package encoding

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAMLStrict decodes YAML data into the specified structure,
// rejecting fields that don't exist in the target. Empty documents leave the
// value untouched.
func UnmarshalYAMLStrict(data []byte, value interface{}) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(value); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// LoadAndUnmarshalYAML loads data from the specified path and decodes it into
// the specified structure.
func LoadAndUnmarshalYAML(path string, value interface{}) error {
	return LoadAndUnmarshal(path, func(data []byte) error {
		return UnmarshalYAMLStrict(data, value)
	})
}
