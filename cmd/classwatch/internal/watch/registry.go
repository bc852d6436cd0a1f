package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/langs"
	"github.com/albertocavalcante/classwatch/internal/log"
)

// Registry maps handles to the directories they watch. It is owned by the
// event loop goroutine and is not safe for concurrent use.
type Registry struct {
	strategy Strategy
	ignore   langs.IgnoreSet

	next   Handle
	paths  map[Handle]string
	byPath map[string]Handle
}

// NewRegistry creates an empty registry on top of strategy. Directories
// skipped by ignore are never registered by RegisterTree.
func NewRegistry(strategy Strategy, ignore langs.IgnoreSet) *Registry {
	return &Registry{
		strategy: strategy,
		ignore:   ignore,
		paths:    make(map[Handle]string),
		byPath:   make(map[string]Handle),
	}
}

// RegisterDirectory watches dir and issues a new handle for it. A directory
// that was already registered has its old handle retired once the watch is
// renewed; if renewing fails the old handle stays in place.
func (r *Registry) RegisterDirectory(dir string) (Handle, error) {
	dir = canonical(dir)
	logger := log.Component("registry")

	old, had := r.byPath[dir]
	if err := r.strategy.Add(dir); err != nil {
		if had {
			logger.Warn("failed to renew watch, keeping previous registration", "dir", dir, "handle", old, "error", err)
		}
		return 0, err
	}
	if had {
		// Watches are keyed by path, so Add renewed the one old held.
		logger.Debug("superseding registration", "dir", dir, "handle", old)
		delete(r.paths, old)
	}

	r.next++
	h := r.next
	r.paths[h] = dir
	r.byPath[dir] = h
	logger.Debug("registered", "dir", dir, "handle", h)
	return h, nil
}

// RegisterTree registers root and, on a non-recursive strategy, every
// directory below it. It returns how many directories were registered.
//
// A directory that cannot be watched is logged and skipped. Hitting the OS
// watch limit aborts the walk with ErrWatchLimitReached; a root that cannot
// be read is an error.
func (r *Registry) RegisterTree(ctx context.Context, root string) (int, error) {
	root = canonical(root)

	if r.strategy.Recursive() {
		if _, _, ok := r.covering(root); ok {
			return 0, nil
		}
		if _, err := r.RegisterDirectory(root); err != nil {
			return 0, err
		}
		return 1, nil
	}

	logger := log.Component("registry")
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			if os.IsPermission(err) {
				logger.Debug("permission denied", "path", path)
			} else {
				logger.Warn("walk error", "path", path, "error", err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && r.ignore.Skip(path) {
			return filepath.SkipDir
		}

		if _, err := r.RegisterDirectory(path); err != nil {
			if errors.Is(err, ErrWatchLimitReached) {
				return err
			}
			logger.Warn("failed to watch directory", "dir", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("register %s: %w", root, err)
	}
	return count, nil
}

// Resolve finds the registration an event path belongs to: its parent
// directory on the tree strategy, the nearest registered ancestor on the
// recursive strategy. An event about a registered directory whose parent
// is not watched, such as the root itself, resolves to that directory.
func (r *Registry) Resolve(path string) (Handle, string, bool) {
	parent := filepath.Dir(path)
	var (
		h  Handle
		ok bool
	)
	if r.strategy.Recursive() {
		h, parent, ok = r.covering(parent)
	} else {
		h, ok = r.byPath[parent]
	}
	if ok {
		return h, parent, true
	}
	if h, ok := r.byPath[path]; ok {
		return h, path, true
	}
	return 0, "", false
}

// Lookup returns the handle registered for exactly dir.
func (r *Registry) Lookup(dir string) (Handle, bool) {
	h, ok := r.byPath[dir]
	return h, ok
}

// Path returns the directory watched by h.
func (r *Registry) Path(h Handle) (string, bool) {
	p, ok := r.paths[h]
	return p, ok
}

// Invalidate releases h and reports whether the registry is now empty.
func (r *Registry) Invalidate(h Handle) bool {
	if dir, ok := r.paths[h]; ok {
		log.Component("registry").Debug("invalidated", "dir", dir, "handle", h)
		r.release(h)
	}
	return len(r.paths) == 0
}

// Rearm reports whether the directory behind h is still there.
func (r *Registry) Rearm(h Handle) bool {
	dir, ok := r.paths[h]
	if !ok {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	return len(r.paths)
}

// Paths returns the registered directories in sorted order.
func (r *Registry) Paths() []string {
	var paths []string
	for p := range r.byPath {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Close releases every registration.
func (r *Registry) Close() {
	for h := range r.paths {
		r.release(h)
	}
}

func (r *Registry) release(h Handle) {
	dir := r.paths[h]
	if err := r.strategy.Remove(dir); err != nil {
		log.Component("registry").Debug("remove watch", "dir", dir, "error", err)
	}
	delete(r.paths, h)
	delete(r.byPath, dir)
}

// covering returns the registration for dir or its nearest registered
// ancestor.
func (r *Registry) covering(dir string) (Handle, string, bool) {
	for {
		if h, ok := r.byPath[dir]; ok {
			return h, dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return 0, "", false
		}
		dir = parent
	}
}

// canonical resolves symlinks so that paths reported by the backend match
// registered ones. Paths that cannot be resolved are only made absolute.
func canonical(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Clean(dir)
}
