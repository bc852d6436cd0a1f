// Package translate maps changed source paths to the build artifacts
// derived from them.
//
// A Rule ties one source root marker (for example "/src/main/java/") to the
// output root markers its files compile into. Translation is a pure string
// rewrite: the first occurrence of the marker is replaced by each
// destination marker and the source suffix is stripped, so
//
//	/proj/src/main/java/com/x/Foo.java
//
// yields /proj/target/classes/com/x/Foo and
// /proj/target/generated-sources/annotations/com/x/Foo.
//
// Paths are matched in slash form so the same markers work on Windows.
package translate

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/albertocavalcante/classwatch/pkg/jvm"
)

// Rule maps one source root to one or more destination roots.
type Rule struct {
	// Name identifies the rule in logs ("java/main").
	Name string

	// SourceMarker is a slash-delimited substring identifying the source root.
	SourceMarker string

	// Destinations are slash-delimited markers substituted for SourceMarker.
	Destinations []string

	// Suffixes are the source file suffixes this rule applies to.
	Suffixes []string

	// ReplaceSuffix is appended after stripping the source suffix.
	// Empty yields an extensionless base path for prefix deletion.
	ReplaceSuffix string
}

// Candidate is a derived artifact path. It may not exist on disk.
type Candidate struct {
	// Path is the artifact path in OS form.
	Path string

	// Root is the destination root directory containing Path. Pruning never
	// removes Root itself or anything above it.
	Root string

	// Suffix is the replacement suffix appended to Path, if any.
	Suffix string

	// Rule is the name of the rule that produced the candidate.
	Rule string
}

// Rules is an ordered rule set. The first rule whose marker matches wins.
type Rules []Rule

// DefaultRules builds the Maven rules for the given languages, main before
// test for each language.
func DefaultRules(langs ...jvm.Language) Rules {
	if len(langs) == 0 {
		langs = []jvm.Language{jvm.Java}
	}

	rules := make(Rules, 0, 2*len(langs))
	for _, l := range langs {
		exts := l.FileExtensions()
		if len(exts) == 0 {
			continue
		}
		rules = append(rules,
			Rule{
				Name:         string(l) + "/main",
				SourceMarker: l.MainSourceMarker(),
				Destinations: jvm.MainOutputs(),
				Suffixes:     exts,
			},
			Rule{
				Name:         string(l) + "/test",
				SourceMarker: l.TestSourceMarker(),
				Destinations: jvm.TestOutputs(),
				Suffixes:     exts,
			},
		)
	}
	return rules
}

// Match returns the first rule whose source marker occurs in path.
func (rs Rules) Match(path string) (Rule, bool) {
	slashed := filepath.ToSlash(path)
	for _, r := range rs {
		if r.SourceMarker != "" && strings.Contains(slashed, r.SourceMarker) {
			return r, true
		}
	}
	return Rule{}, false
}

// IsSource reports whether name ends in a suffix handled by any rule.
func (rs Rules) IsSource(name string) bool {
	for _, r := range rs {
		if _, ok := r.suffixOf(name); ok {
			return true
		}
	}
	return false
}

// Markers returns every distinct source marker in rule order.
func (rs Rules) Markers() []string {
	var out []string
	for _, r := range rs {
		if r.SourceMarker != "" && !slices.Contains(out, r.SourceMarker) {
			out = append(out, r.SourceMarker)
		}
	}
	return out
}

// Translate maps a changed source file to its candidate artifacts, one per
// destination of the matching rule. A path outside every source root, or
// without a handled suffix, yields nil.
func (rs Rules) Translate(path string) []Candidate {
	r, ok := rs.Match(path)
	if !ok {
		return nil
	}
	slashed := filepath.ToSlash(path)
	suffix, ok := r.suffixOf(slashed)
	if !ok {
		return nil
	}
	base := strings.TrimSuffix(slashed, suffix)
	return r.substitute(base, r.ReplaceSuffix)
}

// TranslateDir maps a source directory to the matching output directories.
func (rs Rules) TranslateDir(path string) []Candidate {
	r, ok := rs.Match(path)
	if !ok {
		return nil
	}
	slashed := strings.TrimSuffix(filepath.ToSlash(path), "/")
	return r.substitute(slashed, "")
}

// substitute rewrites the first occurrence of the source marker only, so a
// package that happens to repeat the marker deeper in the path is kept.
func (r Rule) substitute(slashed, suffix string) []Candidate {
	idx := strings.Index(slashed, r.SourceMarker)
	if idx < 0 {
		return nil
	}
	out := make([]Candidate, 0, len(r.Destinations))
	for _, dest := range r.Destinations {
		rewritten := strings.Replace(slashed, r.SourceMarker, dest, 1)
		root := slashed[:idx] + strings.TrimSuffix(dest, "/")
		out = append(out, Candidate{
			Path:   filepath.FromSlash(rewritten + suffix),
			Root:   filepath.FromSlash(root),
			Suffix: suffix,
			Rule:   r.Name,
		})
	}
	return out
}

// suffixOf returns the longest configured suffix that name ends with.
func (r Rule) suffixOf(name string) (string, bool) {
	best := ""
	for _, s := range r.Suffixes {
		if s != "" && strings.HasSuffix(name, s) && len(s) > len(best) {
			best = s
		}
	}
	return best, best != ""
}
