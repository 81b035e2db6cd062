package session

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// exclusionFilter matches paths against doublestar patterns. Patterns that
// contain no separator are matched against a path's base name, while others
// are matched against the whole (slash-separated) path.
type exclusionFilter struct {
	// basePatterns are matched against base names.
	basePatterns []string
	// pathPatterns are matched against full paths.
	pathPatterns []string
}

// newExclusionFilter validates patterns and creates a filter. It returns nil
// if there are no patterns.
func newExclusionFilter(patterns []string) (*exclusionFilter, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	filter := &exclusionFilter{}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid exclusion pattern: %s", pattern)
		}
		if strings.Contains(pattern, "/") {
			filter.pathPatterns = append(filter.pathPatterns, pattern)
		} else {
			filter.basePatterns = append(filter.basePatterns, pattern)
		}
	}
	return filter, nil
}

// excluded returns whether or not a path is excluded.
func (f *exclusionFilter) excluded(path string) bool {
	if f == nil {
		return false
	}
	slashed := filepath.ToSlash(path)
	if len(f.basePatterns) > 0 {
		base := filepath.Base(path)
		for _, pattern := range f.basePatterns {
			if matched, _ := doublestar.Match(pattern, base); matched {
				return true
			}
		}
	}
	for _, pattern := range f.pathPatterns {
		if matched, _ := doublestar.Match(pattern, slashed); matched {
			return true
		}
	}
	return false
}
