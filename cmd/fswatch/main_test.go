package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/mutagen-io/fswatch/pkg/vfs"
	"github.com/mutagen-io/fswatch/pkg/watching/dirty"
	"github.com/mutagen-io/fswatch/pkg/watching/protocol"
	"github.com/mutagen-io/fswatch/pkg/watching/roots"
)

func TestMain(m *testing.M) {
	// Disable color so that output can be compared.
	color.NoColor = true
	os.Exit(m.Run())
}

func TestBuildRequests(t *testing.T) {
	root := t.TempDir()
	requests, err := buildRequests([]string{root}, []string{filepath.Join(root, "docs")})
	if err != nil {
		t.Fatal("unable to build requests:", err)
	}
	if len(requests) != 2 {
		t.Fatal("unexpected request count:", len(requests))
	}
	if !requests[0].Recursive || requests[1].Recursive {
		t.Error("unexpected request kinds")
	}
	effective, dominance, _ := roots.Normalize(requests)
	if len(effective) != 1 || effective[0].ID != requests[0].ID {
		t.Error("flat root beneath recursive root not dominated")
	}
	if !dominance[requests[1].ID] {
		t.Error("flat request not marked dominated")
	}
}

func TestPreload(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal("unable to resolve temporary directory:", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if err := os.WriteFile(filepath.Join(root, name), nil, 0600); err != nil {
			t.Fatal("unable to create file:", err)
		}
	}

	cache := vfs.NewMemoryCache(0)
	if count := preload(cache, []string{root}, nil, 0); count != 4 {
		t.Error("unexpected cached entry count:", count)
	}
	if !cache.Cached(filepath.Join(root, "b")) {
		t.Error("file not cached")
	}

	limited := vfs.NewMemoryCache(2)
	if count := preload(limited, nil, []string{root}, 2); count != 2 {
		t.Error("cache capacity not respected:", count)
	}
}

func TestDescribe(t *testing.T) {
	aggregator := dirty.NewAggregator(0, nil)
	aggregator.OnEvent(protocol.OpChange, "/src/main.c")
	lines := describe(aggregator.Drain())
	if len(lines) == 0 {
		t.Fatal("no lines described")
	}
	found := false
	for _, line := range lines {
		if strings.HasSuffix(line, " /src/main.c") {
			found = true
		}
	}
	if !found {
		t.Error("changed path not described:", lines)
	}
}
