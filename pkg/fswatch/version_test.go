package fswatch

import (
	"strings"
	"testing"
)

// TestVersionFormat verifies that the version string is well-formed.
func TestVersionFormat(t *testing.T) {
	if Version == "" {
		t.Fatal("empty version string")
	} else if strings.ContainsAny(Version, " \t\n") {
		t.Error("version string contains whitespace:", Version)
	} else if VersionTag != "" && !strings.HasSuffix(Version, "-"+VersionTag) {
		t.Error("version string missing tag:", Version)
	}
}
