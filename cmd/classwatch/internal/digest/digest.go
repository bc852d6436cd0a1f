// Package digest remembers the content of source files so that a write
// notification which leaves a file byte-for-byte identical (editors often
// save twice, touch tools rewrite in place) does not trigger a cleanup.
//
// The index is in memory only and rebuilt on every start.
package digest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Entry is the last observed state of one file.
type Entry struct {
	Sum     uint64 // xxHash64 of the content
	ModTime int64  // UnixNano
	Size    int64
}

// entryFor hashes the file at path, whose metadata is info.
func entryFor(path string, info fs.FileInfo) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return Entry{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return Entry{Sum: h.Sum64(), ModTime: info.ModTime().UnixNano(), Size: info.Size()}, nil
}

// unchanged reports whether info still describes the file behind e.
func (e Entry) unchanged(info fs.FileInfo) bool {
	return e.ModTime == info.ModTime().UnixNano() && e.Size == info.Size()
}

// Index maps absolute paths to their last observed Entry.
// It is not safe for concurrent use; the event loop owns it.
type Index struct {
	entries map[string]Entry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]Entry)}
}

// Len returns the number of tracked files.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Observe records the current state of path and reports whether its
// content differs from the previous observation. A file never seen
// before counts as changed, as does one that cannot be read.
func (idx *Index) Observe(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		delete(idx.entries, path)
		return true
	}

	old, seen := idx.entries[path]
	if seen && old.unchanged(info) {
		return false
	}

	e, err := entryFor(path, info)
	if err != nil {
		delete(idx.entries, path)
		return true
	}
	idx.entries[path] = e
	return !seen || old.Sum != e.Sum
}

// Forget drops path, for example after a delete notification.
func (idx *Index) Forget(path string) {
	delete(idx.entries, path)
}

// Seed walks root and records every file whose name is accepted by match.
// Unreadable entries are skipped. Directories whose path skipDir accepts
// are not descended into.
func (idx *Index) Seed(ctx context.Context, root string, match func(name string) bool, skipDir func(path string) bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil
		}

		if d.IsDir() {
			if path != root && skipDir != nil && skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if !match(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if e, err := entryFor(path, info); err == nil {
			idx.entries[path] = e
		}
		return nil
	})
}
