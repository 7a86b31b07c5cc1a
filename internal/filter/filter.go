// Package filter matches paths against include and exclude glob patterns.
//
// Patterns use doublestar syntax ("**" crosses directory boundaries) and are
// matched against the slash-separated path relative to the scan root, and
// against the base name alone, so "node_modules" excludes that directory at
// any depth.
package filter

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobFilter decides which entries the CLI reports.
// The zero value includes everything.
type GlobFilter struct {
	include []string
	exclude []string
}

// New validates the patterns and returns a filter. An empty include list
// includes everything not excluded.
func New(include, exclude []string) (*GlobFilter, error) {
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	return &GlobFilter{include: include, exclude: exclude}, nil
}

// Excluded reports whether rel matches an exclude pattern.
func (f *GlobFilter) Excluded(rel string) bool {
	if f == nil {
		return false
	}

	return matchAny(f.exclude, rel)
}

// ShouldInclude reports whether rel passes the filter: it matches no exclude
// pattern, and matches an include pattern if there are any.
func (f *GlobFilter) ShouldInclude(rel string) bool {
	if f == nil {
		return true
	}

	if matchAny(f.exclude, rel) {
		return false
	}

	if len(f.include) == 0 {
		return true
	}

	return matchAny(f.include, rel)
}

// SkipFunc adapts Excluded to the walker's directory pruning hook. dir and
// name are native paths; rel is computed against root.
func (f *GlobFilter) SkipFunc(root string) func(dir, name string) bool {
	return func(dir, name string) bool {
		rel, err := filepath.Rel(root, filepath.Join(dir, name))
		if err != nil {
			rel = name
		}

		return f.Excluded(rel)
	}
}

func matchAny(patterns []string, rel string) bool {
	slashed := filepath.ToSlash(rel)
	base := path.Base(slashed)

	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, slashed) || doublestar.MatchUnvalidated(p, base) {
			return true
		}
	}

	return false
}
