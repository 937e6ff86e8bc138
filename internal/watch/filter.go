package watch

import (
	"path/filepath"
	"strings"
)

// OrganizedSuffix marks per-folder output roots such as Downloads_Organized.
const OrganizedSuffix = "_Organized"

var systemNames = map[string]struct{}{
	"Thumbs.db":    {},
	"desktop.ini":  {},
	"Icon\r":       {},
	".DS_Store":    {},
	"node_modules": {},
}

// Filter matches paths that must never be reported or organized.
type Filter struct {
	reserved map[string]struct{}
	patterns []string
}

// NewFilter builds a Filter. reserved lists organizer output folder names;
// patterns are base-name globs in filepath.Match syntax.
func NewFilter(reserved []string, patterns []string) *Filter {
	f := &Filter{reserved: make(map[string]struct{}, len(reserved))}
	for _, name := range reserved {
		if name = strings.TrimSpace(name); name != "" {
			f.reserved[name] = struct{}{}
		}
	}
	for _, pattern := range patterns {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			f.patterns = append(f.patterns, pattern)
		}
	}
	return f
}

// Match reports whether path should be ignored. Any path segment that is
// hidden, reserved, or a system bookkeeping name matches, as does a base name
// matching one of the glob patterns.
func (f *Filter) Match(path string) bool {
	if path == "" {
		return true
	}
	for _, segment := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if f.matchSegment(segment) {
			return true
		}
	}
	base := filepath.Base(path)
	for _, pattern := range f.patterns {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func (f *Filter) matchSegment(segment string) bool {
	if segment == "" {
		return false
	}
	if strings.HasPrefix(segment, ".") {
		return true
	}
	if strings.HasSuffix(segment, OrganizedSuffix) {
		return true
	}
	if _, ok := systemNames[segment]; ok {
		return true
	}
	if f != nil {
		if _, ok := f.reserved[segment]; ok {
			return true
		}
	}
	return false
}
