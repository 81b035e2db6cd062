//go:build !windows

package filesystem

import (
	"reflect"
	"testing"
)

func TestTrimTrailingSeparators(t *testing.T) {
	testCases := map[string]string{
		"/":          "/",
		"//":         "/",
		"/a/b/":      "/a/b",
		"/a/b///":    "/a/b",
		"/a/b":       "/a/b",
		"relative/":  "relative",
		"":           "",
	}
	for input, expected := range testCases {
		if trimmed := TrimTrailingSeparators(input); trimmed != expected {
			t.Errorf("trimming %q: %q != %q", input, trimmed, expected)
		}
	}
}

func TestParent(t *testing.T) {
	if parent, ok := Parent("/a/b"); !ok || parent != "/a" {
		t.Error("unexpected parent for /a/b:", parent, ok)
	}
	if parent, ok := Parent("/a"); !ok || parent != "/" {
		t.Error("unexpected parent for /a:", parent, ok)
	}
	if _, ok := Parent("/"); ok {
		t.Error("root reported as having a parent")
	}
}

func TestIsAncestor(t *testing.T) {
	testCases := []struct {
		ancestor string
		path     string
		strict   bool
		expected bool
	}{
		{"/a", "/a", false, true},
		{"/a", "/a", true, false},
		{"/a", "/a/b", true, true},
		{"/a", "/ab", false, false},
		{"/", "/a", true, true},
		{"/a/b", "/a", false, false},
		{"", "/a", true, false},
		{"", "", false, false},
	}
	for _, testCase := range testCases {
		if result := IsAncestor(testCase.ancestor, testCase.path, testCase.strict); result != testCase.expected {
			t.Errorf("IsAncestor(%q, %q, %t) = %t", testCase.ancestor, testCase.path, testCase.strict, result)
		}
	}
}

func TestRebase(t *testing.T) {
	if rebased, ok := Rebase("/real/sub/file", "/real", "/link"); !ok || rebased != "/link/sub/file" {
		t.Error("unexpected rebase result:", rebased, ok)
	}
	if rebased, ok := Rebase("/real", "/real", "/link"); !ok || rebased != "/link" {
		t.Error("unexpected rebase result for base itself:", rebased, ok)
	}
	if _, ok := Rebase("/other", "/real", "/link"); ok {
		t.Error("path outside base rebased")
	}
}

func TestSegments(t *testing.T) {
	if segments := Segments("/a/b/c"); !reflect.DeepEqual(segments, []string{"/", "a", "b", "c"}) {
		t.Error("unexpected segments:", segments)
	}
	if segments := Segments("/"); !reflect.DeepEqual(segments, []string{"/"}) {
		t.Error("unexpected root segments:", segments)
	}
}
