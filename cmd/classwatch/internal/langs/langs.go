// Package langs provides the shared language and directory filters used by
// detection and watching.
//
// # Ignored Directories
//
// Directory names are matched exactly, with one exception: "." stands for
// every hidden directory. Exact matching keeps package directories such as
// "builder" or "outbound" visible even though "build" and "out" are ignored.
//
// Inside a source root nothing is ignored: com/acme/build is a package,
// not Gradle output. A directory is inside a source root when its path
// contains one of the source markers given to KeepSources.
package langs

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/albertocavalcante/classwatch/pkg/jvm"
)

// Parse resolves language names. Unknown names are an error; duplicates are
// dropped. An empty list yields nil so callers can fall back to detection.
func Parse(names []string) ([]jvm.Language, error) {
	var out []jvm.Language
	seen := make(map[jvm.Language]bool)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		l, ok := jvm.ParseLanguage(name)
		if !ok {
			return nil, fmt.Errorf("unsupported language %q (want one of %s)", name, Names())
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, nil
}

// Names lists the supported language names, comma separated.
func Names() string {
	all := jvm.AllLanguages()
	names := make([]string, len(all))
	for i, l := range all {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

// IgnoreSet matches directories that are never watched or scanned.
type IgnoreSet struct {
	names   map[string]bool
	hidden  bool
	sources []string
}

// NewIgnoreSet builds a set from directory names.
func NewIgnoreSet(names []string) IgnoreSet {
	s := IgnoreSet{names: make(map[string]bool, len(names))}
	for _, n := range names {
		if n == "." {
			s.hidden = true
			continue
		}
		s.names[n] = true
	}
	return s
}

// KeepSources returns a copy of s that never ignores a directory whose
// slash-separated path contains one of markers, such as "/src/main/java/".
func (s IgnoreSet) KeepSources(markers []string) IgnoreSet {
	s.sources = slices.Clone(markers)
	return s
}

// Match reports whether a directory with this base name is ignored,
// regardless of where it sits.
func (s IgnoreSet) Match(name string) bool {
	if s.hidden && strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	return s.names[name]
}

// Skip reports whether the directory at path is ignored: its name matches
// and it does not lie inside a source root.
func (s IgnoreSet) Skip(path string) bool {
	if !s.Match(filepath.Base(path)) {
		return false
	}
	slashed := filepath.ToSlash(path) + "/"
	for _, m := range s.sources {
		if m != "" && strings.Contains(slashed, m) {
			return false
		}
	}
	return true
}

// Under reports whether any directory between root and path is skipped.
// The last element of path is not checked.
func (s IgnoreSet) Under(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	dir := root
	for _, p := range parts[:len(parts)-1] {
		dir = filepath.Join(dir, p)
		if s.Skip(dir) {
			return true
		}
	}
	return false
}
