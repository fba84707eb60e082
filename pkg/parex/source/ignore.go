package source

import (
	"path"
	"strings"
)

// ignoreMatcher applies gitignore-style patterns to slash-separated paths
// relative to the walk root. Later patterns win, "!" negates, a trailing "/"
// restricts a pattern to directories, and a leading "/" anchors it to the
// root.
type ignoreMatcher struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern string
	negated bool
	dirOnly bool
	rooted  bool
}

func newIgnoreMatcher(raw []string) *ignoreMatcher {
	m := &ignoreMatcher{}
	for _, r := range raw {
		p := ignorePattern{}
		trimmed := strings.TrimSpace(r)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "!") {
			p.negated = true
			trimmed = trimmed[1:]
		}
		if strings.HasPrefix(trimmed, "/") {
			p.rooted = true
			trimmed = strings.TrimPrefix(trimmed, "/")
		}
		if strings.HasSuffix(trimmed, "/") {
			p.dirOnly = true
			trimmed = strings.TrimSuffix(trimmed, "/")
		}
		p.pattern = trimmed
		if p.pattern == "" {
			continue
		}
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Match reports whether rel should be ignored. The last matching pattern
// decides, so negations can re-include previously ignored paths.
func (m *ignoreMatcher) Match(rel string, isDir bool) bool {
	ignored := false
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if p.matches(rel) {
			ignored = !p.negated
		}
	}
	return ignored
}

func (p ignorePattern) matches(rel string) bool {
	if p.rooted {
		if ok, _ := path.Match(p.pattern, rel); ok {
			return true
		}
		return strings.HasPrefix(rel, p.pattern+"/")
	}
	if ok, _ := path.Match(p.pattern, rel); ok {
		return true
	}
	// Unrooted patterns match any path component, so "node_modules" prunes
	// the tree wherever it appears.
	for _, seg := range strings.Split(rel, "/") {
		if ok, _ := path.Match(p.pattern, seg); ok {
			return true
		}
	}
	return false
}

func (m *ignoreMatcher) empty() bool { return m == nil || len(m.patterns) == 0 }
