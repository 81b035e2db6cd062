//go:build !windows

package roots

import (
	"path"
	"reflect"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
)

// newRequest creates a test request with a path-derived identifier.
func newRequest(path string, recursive bool) *WatchRequest {
	kind := "flat"
	if recursive {
		kind = "recursive"
	}
	return &WatchRequest{
		ID:        RequestID(kind + ":" + path),
		Path:      path,
		Recursive: recursive,
	}
}

// paths extracts the paths of a list of requests.
func paths(requests []*WatchRequest) []string {
	var result []string
	for _, request := range requests {
		result = append(result, request.Path)
	}
	return result
}

func TestNormalizeEmpty(t *testing.T) {
	minimal, dominance, trie := Normalize(nil)
	if len(minimal) != 0 || len(dominance) != 0 {
		t.Error("non-empty normalization of empty input")
	}
	if trie.IsAlreadyWatched("/a") {
		t.Error("empty trie reports watched path")
	}
}

func TestNormalizeDominatedByRecursiveParent(t *testing.T) {
	for _, recursive := range []bool{false, true} {
		parent := newRequest("/a", true)
		child := newRequest("/a/b", recursive)

		// Check both insertion orders.
		for _, order := range [][]*WatchRequest{{parent, child}, {child, parent}} {
			minimal, dominance, _ := Normalize(order)
			if !reflect.DeepEqual(minimal, []*WatchRequest{parent}) {
				t.Error("unexpected minimal set:", paths(minimal))
			}
			if !dominance[child.ID] {
				t.Error("child request not dominated")
			}
			if dominance[parent.ID] {
				t.Error("parent request dominated")
			}
		}
	}
}

func TestNormalizeRecursiveBeatsFlatAtSamePath(t *testing.T) {
	flat := newRequest("/x", false)
	recursive := newRequest("/x", true)
	for _, order := range [][]*WatchRequest{{flat, recursive}, {recursive, flat}} {
		minimal, dominance, _ := Normalize(order)
		if !reflect.DeepEqual(minimal, []*WatchRequest{recursive}) {
			t.Error("unexpected minimal set:", paths(minimal))
		}
		if !dominance[flat.ID] {
			t.Error("flat request not dominated")
		}
	}
}

func TestNormalizeLaterDuplicateDominated(t *testing.T) {
	first := &WatchRequest{ID: "first", Path: "/x", Recursive: true}
	second := &WatchRequest{ID: "second", Path: "/x", Recursive: true}
	minimal, dominance, _ := Normalize([]*WatchRequest{first, second})
	if !reflect.DeepEqual(minimal, []*WatchRequest{first}) {
		t.Error("unexpected minimal set:", paths(minimal))
	}
	if !dominance[second.ID] || dominance[first.ID] {
		t.Error("unexpected dominance:", dominance)
	}
}

func TestNormalizeFlatDoesNotDominateDescendants(t *testing.T) {
	flat := newRequest("/a", false)
	nested := newRequest("/a/b/c", true)
	minimal, _, _ := Normalize([]*WatchRequest{flat, nested})
	if !reflect.DeepEqual(paths(minimal), []string{"/a", "/a/b/c"}) {
		t.Error("unexpected minimal set:", paths(minimal))
	}
}

func TestNormalizePrunesDeepSubtree(t *testing.T) {
	requests := []*WatchRequest{
		newRequest("/p/q/r", false),
		newRequest("/p/q/s/t", true),
		newRequest("/p/u", true),
		newRequest("/p", true),
		newRequest("/other", false),
	}
	minimal, dominance, _ := Normalize(requests)
	if !reflect.DeepEqual(paths(minimal), []string{"/p", "/other"}) {
		t.Error("unexpected minimal set:", paths(minimal))
	}
	for _, request := range requests[:3] {
		if !dominance[request.ID] {
			t.Error("request not dominated:", request.Path)
		}
	}
}

func TestNormalizeSiblingPrefixNotDominated(t *testing.T) {
	minimal, _, _ := Normalize([]*WatchRequest{
		newRequest("/proj", true),
		newRequest("/project", true),
	})
	if len(minimal) != 2 {
		t.Error("sibling sharing a name prefix was dominated:", paths(minimal))
	}
}

func TestNormalizeDoesNotModifyInput(t *testing.T) {
	child := newRequest("/a/b", false)
	Normalize([]*WatchRequest{newRequest("/a", true), child})
	if child.Dominated {
		t.Error("input request modified")
	}
}

// randomRequests generates a random set of requests over a small path
// vocabulary so that overlaps are common.
func randomRequests(count int) []*WatchRequest {
	vocabulary := []string{"a", "b", "c"}
	requests := make([]*WatchRequest, 0, count)
	for i := 0; i < count; i++ {
		components := []string{"/"}
		for depth := gofakeit.Number(1, 4); depth > 0; depth-- {
			components = append(components, gofakeit.RandomString(vocabulary))
		}
		requests = append(requests, &WatchRequest{
			ID:        RequestID(gofakeit.UUID()),
			Path:      path.Join(components...),
			Recursive: gofakeit.Bool(),
		})
	}
	return requests
}

func TestNormalizeIdempotent(t *testing.T) {
	gofakeit.Seed(17)
	for iteration := 0; iteration < 200; iteration++ {
		requests := randomRequests(gofakeit.Number(1, 12))
		minimal, _, _ := Normalize(requests)
		renormalized, dominance, _ := Normalize(minimal)
		if !reflect.DeepEqual(minimal, renormalized) {
			t.Fatal("normalization not idempotent:", paths(minimal), "!=", paths(renormalized))
		}
		for id, dominated := range dominance {
			if dominated {
				t.Fatal("minimal request dominated on renormalization:", id)
			}
		}
	}
}

func TestNormalizeMinimalSetIsDisjoint(t *testing.T) {
	gofakeit.Seed(29)
	for iteration := 0; iteration < 200; iteration++ {
		minimal, _, _ := Normalize(randomRequests(gofakeit.Number(1, 12)))
		for _, outer := range minimal {
			if !outer.Recursive {
				continue
			}
			for _, inner := range minimal {
				if inner != outer && (inner.Path == outer.Path ||
					len(inner.Path) > len(outer.Path) && inner.Path[:len(outer.Path)+1] == outer.Path+"/") {
					t.Fatal("minimal set contains covered request:", inner.Path, "under", outer.Path)
				}
			}
		}
	}
}

func TestTrieIsAlreadyWatched(t *testing.T) {
	_, _, trie := Normalize([]*WatchRequest{
		newRequest("/proj", true),
		newRequest("/flat", false),
	})
	testCases := map[string]bool{
		"/proj":          true,
		"/proj/a/b":      true,
		"/flat":          true,
		"/flat/child":    true,
		"/flat/child/gc": false,
		"/other":         false,
		"/":              false,
	}
	for path, expected := range testCases {
		if watched := trie.IsAlreadyWatched(path); watched != expected {
			t.Errorf("IsAlreadyWatched(%q) = %t", path, watched)
		}
	}
}

func TestSplit(t *testing.T) {
	recursive, flat := Split([]*WatchRequest{
		newRequest("/a", true),
		newRequest("/b", false),
		newRequest("/c", true),
	})
	if !reflect.DeepEqual(recursive, []string{"/a", "/c"}) {
		t.Error("unexpected recursive roots:", recursive)
	}
	if !reflect.DeepEqual(flat, []string{"/b"}) {
		t.Error("unexpected flat roots:", flat)
	}
}
