//go:build !windows

package pathmap

import (
	"reflect"
	"testing"
)

// linkResolver resolves /link to /real and leaves other paths untouched.
func linkResolver(path string) string {
	if path == "/link" {
		return "/real"
	} else if len(path) > len("/link/") && path[:len("/link/")] == "/link/" {
		return "/real" + path[len("/link"):]
	}
	return path
}

func TestCanonicalRootsDeduplicated(t *testing.T) {
	m := Build([]string{"/link", "/real"}, []string{"/real", "/flat"}, linkResolver)
	recursive, flat := m.CanonicalRoots()
	if !reflect.DeepEqual(recursive, []string{"/real"}) {
		t.Error("unexpected canonical recursive roots:", recursive)
	}
	if !reflect.DeepEqual(flat, []string{"/flat"}) {
		t.Error("unexpected canonical flat roots:", flat)
	}
	if originals := m.OriginalRoots("/real"); !reflect.DeepEqual(originals, []string{"/link", "/real", "/real"}) {
		t.Error("unexpected original roots:", originals)
	}
}

func TestWatchedPathsForAliases(t *testing.T) {
	m := Build([]string{"/link", "/real"}, nil, linkResolver)
	paths := m.WatchedPathsFor("/real/sub/file", false)
	if !reflect.DeepEqual(paths, []string{"/link/sub/file", "/real/sub/file"}) {
		t.Error("unexpected watched paths:", paths)
	}
}

func TestWatchedPathsForOnlyAlias(t *testing.T) {
	m := Build([]string{"/link"}, nil, linkResolver)
	paths := m.WatchedPathsFor("/real/file", false)
	if !reflect.DeepEqual(paths, []string{"/link/file"}) {
		t.Error("unexpected watched paths:", paths)
	}
}

func TestWatchedPathsForFlatRoot(t *testing.T) {
	m := Build(nil, []string{"/flat"}, nil)
	if paths := m.WatchedPathsFor("/flat/child", false); !reflect.DeepEqual(paths, []string{"/flat/child"}) {
		t.Error("unexpected watched paths for child:", paths)
	}
	if paths := m.WatchedPathsFor("/flat", false); !reflect.DeepEqual(paths, []string{"/flat"}) {
		t.Error("unexpected watched paths for root:", paths)
	}
	if paths := m.WatchedPathsFor("/flat/child/grandchild", false); len(paths) != 0 {
		t.Error("grandchild of flat root reported:", paths)
	}
}

func TestWatchedPathsForUnknownPath(t *testing.T) {
	m := Build([]string{"/proj"}, nil, nil)
	if paths := m.WatchedPathsFor("/elsewhere/file", true); len(paths) != 0 {
		t.Error("unknown path produced results:", paths)
	}
	if paths := m.WatchedPathsFor("/project", false); len(paths) != 0 {
		t.Error("sibling with shared prefix produced results:", paths)
	}
}

func TestWatchedPathsForAncestorInRecursiveScope(t *testing.T) {
	m := Build([]string{"/a/b/proj"}, []string{"/a/b/flat"}, nil)
	if paths := m.WatchedPathsFor("/a", false); len(paths) != 0 {
		t.Error("ancestor produced results outside recursive scope:", paths)
	}
	paths := m.WatchedPathsFor("/a", true)
	if !reflect.DeepEqual(paths, []string{"/a/b/flat", "/a/b/proj"}) {
		t.Error("unexpected watched paths for ancestor:", paths)
	}
}

func TestAddRemap(t *testing.T) {
	m := Build([]string{"/proj"}, nil, nil)
	if paths := m.WatchedPathsFor("/store/lib/x", false); len(paths) != 0 {
		t.Fatal("unmapped path produced results:", paths)
	}
	m.AddRemap([][2]string{{"/proj/lib/", "/store/lib"}})
	paths := m.WatchedPathsFor("/store/lib/x", false)
	if !reflect.DeepEqual(paths, []string{"/proj/lib/x"}) {
		t.Error("unexpected watched paths after remap:", paths)
	}

	// Remapping again must not duplicate or remove existing associations.
	m.AddRemap([][2]string{{"/proj/lib", "/store/lib"}, {"/proj/other", "/other"}})
	if paths := m.WatchedPathsFor("/store/lib/x", false); !reflect.DeepEqual(paths, []string{"/proj/lib/x"}) {
		t.Error("unexpected watched paths after second remap:", paths)
	}
}

func TestAddRemapBeneathLinkedRoot(t *testing.T) {
	m := Build([]string{"/link"}, nil, linkResolver)
	m.AddRemap([][2]string{{"/real/lib", "/store/lib"}})
	if paths := m.WatchedPathsFor("/store/lib/x.c", false); !reflect.DeepEqual(paths, []string{"/link/lib/x.c"}) {
		t.Error("unexpected watched paths beneath linked root:", paths)
	}
	if paths := m.WatchedPathsFor("/store/lib", true); !reflect.DeepEqual(paths, []string{"/link/lib"}) {
		t.Error("unexpected watched paths for remapped directory:", paths)
	}
	if paths := m.WatchedPathsFor("/real/main.c", false); !reflect.DeepEqual(paths, []string{"/link/main.c"}) {
		t.Error("unexpected watched paths for direct child:", paths)
	}
}

func TestWatchedPathsForEmptyPath(t *testing.T) {
	m := Build([]string{"/proj"}, []string{"/flat"}, nil)
	if paths := m.WatchedPathsFor("", true); len(paths) != 0 {
		t.Error("empty path produced results:", paths)
	}
}

func TestRoots(t *testing.T) {
	m := Build([]string{"/link"}, []string{"/flat"}, linkResolver)
	recursive, flat := m.Roots()
	if !reflect.DeepEqual(recursive, []string{"/link"}) || !reflect.DeepEqual(flat, []string{"/flat"}) {
		t.Error("unexpected original roots:", recursive, flat)
	}
}
