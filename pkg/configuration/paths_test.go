package configuration

import (
	"path/filepath"
	"testing"
)

// TestGlobalConfigurationPath tests that GlobalConfigurationPath succeeds and
// returns a path with the expected name.
func TestGlobalConfigurationPath(t *testing.T) {
	if path, err := GlobalConfigurationPath(); err != nil {
		t.Fatal("unable to compute global configuration path:", err)
	} else if filepath.Base(path) != GlobalConfigurationName {
		t.Error("unexpected global configuration path:", path)
	}
}
