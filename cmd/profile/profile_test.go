package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProfileOutputs(t *testing.T) {
	directory := t.TempDir()
	profile, err := New(directory, "watch")
	if err != nil {
		t.Fatal("unable to start profile:", err)
	}
	if err := profile.Finalize(); err != nil {
		t.Fatal("unable to finalize profile:", err)
	}
	for _, name := range []string{"watch_cpu.prof", "watch_heap.prof"} {
		if _, err := os.Stat(filepath.Join(directory, name)); err != nil {
			t.Error("missing profile output:", name)
		}
	}
}

func TestProfileInvalidDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), "watch"); err == nil {
		t.Error("profile started in missing directory")
	}
}
