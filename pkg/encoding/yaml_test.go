package encoding

import (
	"os"
	"path/filepath"
	"testing"
)

// testMessageYAML is a test structure to use for encoding tests using YAML.
type testMessageYAML struct {
	Section struct {
		Name string `yaml:"name"`
		Age  uint   `yaml:"age"`
	} `yaml:"section"`
}

const (
	// testMessageYAMLString is the YAML-encoded form of the YAML test data.
	testMessageYAMLString = `
section:
  name: "Abraham"
  age: 56
`
	// testMessageYAMLName is the YAML test name.
	testMessageYAMLName = "Abraham"
	// testMessageYAMLAge is the YAML test age.
	testMessageYAMLAge = 56
)

// writeTestFile writes contents to a temporary file and returns its path.
func writeTestFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal("unable to write test file:", err)
	}
	return path
}

// TestLoadAndUnmarshalYAML tests that loading and unmarshaling YAML data
// succeeds.
func TestLoadAndUnmarshalYAML(t *testing.T) {
	// Attempt to load and unmarshal.
	value := &testMessageYAML{}
	if err := LoadAndUnmarshalYAML(writeTestFile(t, testMessageYAMLString), value); err != nil {
		t.Fatal("LoadAndUnmarshalYAML failed:", err)
	}

	// Verify test value names.
	if value.Section.Name != testMessageYAMLName {
		t.Error("test YAML name mismatch:", value.Section.Name, "!=", testMessageYAMLName)
	}
	if value.Section.Age != testMessageYAMLAge {
		t.Error("test YAML age mismatch:", value.Section.Age, "!=", testMessageYAMLAge)
	}
}

// TestLoadAndUnmarshalYAMLUnknownField tests that unknown fields are rejected.
func TestLoadAndUnmarshalYAMLUnknownField(t *testing.T) {
	value := &testMessageYAML{}
	path := writeTestFile(t, "section:\n  name: Abraham\n  height: 193\n")
	if LoadAndUnmarshalYAML(path, value) == nil {
		t.Error("unknown field accepted")
	}
}

// TestLoadAndUnmarshalYAMLEmpty tests that empty documents are accepted.
func TestLoadAndUnmarshalYAMLEmpty(t *testing.T) {
	value := &testMessageYAML{}
	value.Section.Name = testMessageYAMLName
	if err := LoadAndUnmarshalYAML(writeTestFile(t, ""), value); err != nil {
		t.Fatal("empty document rejected:", err)
	}
	if value.Section.Name != testMessageYAMLName {
		t.Error("empty document modified value")
	}
}
