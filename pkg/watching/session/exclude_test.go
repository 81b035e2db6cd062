package session

import (
	"testing"
)

func TestExclusionFilter(t *testing.T) {
	filter, err := newExclusionFilter([]string{"*.o", "/work/**/node_modules/**", ".git"})
	if err != nil {
		t.Fatal("unable to create filter:", err)
	}
	testCases := []struct {
		path     string
		excluded bool
	}{
		{"/work/proj/build/out.o", true},
		{"/work/proj/main.c", false},
		{"/work/proj/node_modules/left-pad/index.js", true},
		{"/elsewhere/node_modules/left-pad/index.js", false},
		{"/work/proj/.git", true},
		{"/work/proj/.github", false},
	}
	for _, testCase := range testCases {
		if excluded := filter.excluded(testCase.path); excluded != testCase.excluded {
			t.Errorf("exclusion mismatch for %s: %t != %t", testCase.path, excluded, testCase.excluded)
		}
	}
}

func TestExclusionFilterEmpty(t *testing.T) {
	filter, err := newExclusionFilter(nil)
	if err != nil {
		t.Fatal("unable to create filter:", err)
	}
	if filter.excluded("/anything") {
		t.Error("empty filter excluded path")
	}
}

func TestExclusionFilterInvalid(t *testing.T) {
	if _, err := newExclusionFilter([]string{"[unterminated"}); err == nil {
		t.Error("invalid pattern accepted")
	}
}
