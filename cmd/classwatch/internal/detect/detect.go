// Package detect finds which JVM languages a source tree uses.
//
// # Detection Algorithm
//
// Language detection is DETERMINISTIC: given the same directory contents,
// it always produces the same list of detected languages. The algorithm:
//
//  1. Walk the directory tree, skipping ignored directories
//  2. For each file, check if its extension belongs to a JVM language
//  3. Return the detected languages in jvm.AllLanguages order
//
// The walk stops early once every supported language has been seen.
package detect

import (
	"io/fs"
	"path/filepath"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/langs"
	"github.com/albertocavalcante/classwatch/internal/log"
	"github.com/albertocavalcante/classwatch/pkg/jvm"
)

// Languages detects JVM languages used under root.
//
// Directories named in ignoreDirs are skipped ("." skips hidden ones)
// unless they lie inside a Maven source root.
// Unreadable subdirectories are skipped too; only a root that cannot be
// read is an error.
func Languages(root string, ignoreDirs []string) ([]jvm.Language, error) {
	all := jvm.AllLanguages()
	var markers []string
	for _, l := range all {
		markers = append(markers, l.MainSourceMarker(), l.TestSourceMarker())
	}
	ignore := langs.NewIgnoreSet(ignoreDirs).KeepSources(markers)
	found := make(map[jvm.Language]bool)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Component("detect").Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}

		if d.IsDir() {
			if path != root && ignore.Skip(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if l, ok := jvm.LanguageForExtension(filepath.Ext(path)); ok {
			found[l] = true
			if len(found) == len(all) {
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]jvm.Language, 0, len(found))
	for _, l := range all {
		if found[l] {
			result = append(result, l)
		}
	}
	return result, nil
}
