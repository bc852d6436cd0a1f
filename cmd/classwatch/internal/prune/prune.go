// Package prune deletes stale build artifacts.
//
// Every operation here is best effort. A file that is already gone, locked,
// or not deletable is logged and skipped; nothing is retried and no error
// reaches the caller.
package prune

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/translate"
	"github.com/albertocavalcante/classwatch/internal/log"
)

// DefaultVariantSeparators follow a base name in compiler-generated
// variants: C.class, C$1.class, C$Inner.class.
const DefaultVariantSeparators = "$."

// Reporter receives every deletion attempt. The session logger implements it.
type Reporter interface {
	Deleted(path string, isDir bool)
	DeleteFailed(path string, err error)
}

// Options configures a Pruner.
type Options struct {
	// VariantSeparators overrides DefaultVariantSeparators.
	VariantSeparators string

	// Cascade keeps removing empty parents until the candidate root.
	Cascade bool

	// DryRun reports deletions without touching the filesystem.
	DryRun bool

	// Reporter is optional.
	Reporter Reporter
}

// Pruner deletes artifacts for candidate paths.
type Pruner struct {
	separators string
	cascade    bool
	dryRun     bool
	reporter   Reporter
}

// New creates a Pruner.
func New(opts Options) *Pruner {
	seps := opts.VariantSeparators
	if seps == "" {
		seps = DefaultVariantSeparators
	}
	return &Pruner{
		separators: seps,
		cascade:    opts.Cascade,
		dryRun:     opts.DryRun,
		reporter:   opts.Reporter,
	}
}

// Prune deletes every artifact matching the candidate and then removes its
// directory if that left it empty. It returns the deleted paths.
func (p *Pruner) Prune(c translate.Candidate) []string {
	deleted := p.DeleteByPrefix(strings.TrimSuffix(c.Path, c.Suffix))
	if dir := filepath.Dir(c.Path); p.PruneIfEmpty(dir, c.Root) {
		deleted = append(deleted, dir)
	}
	return deleted
}

// DeleteByPrefix deletes every file next to basePath whose name is the base
// name itself or the base name followed by a variant separator. basePath
// carries no artifact suffix: "C" matches C.class and C$1.class but not
// Czzz.class.
func (p *Pruner) DeleteByPrefix(basePath string) []string {
	dir := filepath.Dir(basePath)
	base := filepath.Base(basePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Component("prune").Warn("cannot list artifact directory", "dir", dir, "error", err)
		}
		return nil
	}

	var deleted []string
	for _, e := range entries {
		if e.IsDir() || !p.isVariant(e.Name(), base) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if p.DeleteFile(path) {
			deleted = append(deleted, path)
		}
	}
	return deleted
}

// DeleteFile deletes a single file and reports whether it is gone.
func (p *Pruner) DeleteFile(path string) bool {
	return p.remove(path, false)
}

// PruneIfEmpty deletes dir when it is an existing, empty directory strictly
// below root. With cascade enabled it repeats the check for each parent up
// to, but never including, root. It reports whether dir was removed.
func (p *Pruner) PruneIfEmpty(dir, root string) bool {
	removed := false
	for {
		if !within(dir, root) || !isEmptyDir(dir) {
			return removed
		}
		if !p.remove(dir, true) {
			return removed
		}
		removed = true
		if !p.cascade {
			return removed
		}
		dir = filepath.Dir(dir)
	}
}

// PruneDirs runs PruneIfEmpty for each directory candidate.
func (p *Pruner) PruneDirs(cs []translate.Candidate) int {
	n := 0
	for _, c := range cs {
		if p.PruneIfEmpty(c.Path, c.Root) {
			n++
		}
	}
	return n
}

func (p *Pruner) remove(path string, isDir bool) bool {
	logger := log.Component("prune")
	if p.dryRun {
		logger.Info("would delete", "path", path, "dir", isDir)
		if p.reporter != nil {
			p.reporter.Deleted(path, isDir)
		}
		return true
	}

	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("delete failed", "path", path, "dir", isDir, "error", err)
		if p.reporter != nil {
			p.reporter.DeleteFailed(path, err)
		}
		return false
	}
	if err != nil {
		logger.Debug("already gone", "path", path)
		return false
	}

	logger.Info("deleted", "path", path, "dir", isDir)
	if p.reporter != nil {
		p.reporter.Deleted(path, isDir)
	}
	return true
}

// isVariant matches name == base, or base followed by a separator.
func (p *Pruner) isVariant(name, base string) bool {
	if !strings.HasPrefix(name, base) {
		return false
	}
	if len(name) == len(base) {
		return true
	}
	return strings.IndexByte(p.separators, name[len(base)]) >= 0
}

// within reports whether dir is strictly below root.
func within(dir, root string) bool {
	if root == "" {
		return false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isEmptyDir(dir string) bool {
	f, err := os.Open(dir)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = f.Readdirnames(1)
	return errors.Is(err, io.EOF)
}
