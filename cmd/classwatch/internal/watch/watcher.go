package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/digest"
	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/langs"
	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/prune"
	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/translate"
	"github.com/albertocavalcante/classwatch/internal/log"
)

// ErrNoWatchedDirectories stops the loop once every registration is gone.
var ErrNoWatchedDirectories = errors.New("no watched directories left")

// maxBatch caps how many queued events are drained after a blocking wait.
const maxBatch = 256

// Config configures the watcher.
type Config struct {
	Root  string
	Rules translate.Rules

	// Strategy is "auto", "tree" or "recursive". Backend, when set, is used
	// instead and Strategy is ignored.
	Strategy string
	Backend  Strategy

	IgnoreDirs    []string
	SkipUnchanged bool
	Prune         prune.Options

	Output  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// Watcher keeps compiled artifacts in step with a source tree.
type Watcher struct {
	config   Config
	strategy Strategy
	registry *Registry
	pruner   *prune.Pruner
	digests  *digest.Index
	logger   *Logger
	ignore   langs.IgnoreSet
	root     string
}

// New creates a new watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	strategy := cfg.Backend
	if strategy == nil {
		s, err := NewStrategy(cfg.Strategy)
		if err != nil {
			return nil, err
		}
		strategy = s
	}

	logger := NewLogger(LoggerConfig{
		Writer:  cfg.Output,
		Verbose: cfg.Verbose,
		NoColor: cfg.NoColor,
		JSON:    cfg.JSON,
	})

	opts := cfg.Prune
	opts.Reporter = logger

	ignore := langs.NewIgnoreSet(cfg.IgnoreDirs).KeepSources(cfg.Rules.Markers())
	w := &Watcher{
		config:   cfg,
		strategy: strategy,
		registry: NewRegistry(strategy, ignore),
		pruner:   prune.New(opts),
		logger:   logger,
		ignore:   ignore,
		root:     canonical(cfg.Root),
	}
	if cfg.SkipUnchanged {
		w.digests = digest.NewIndex()
	}
	return w, nil
}

// Logger returns the session logger.
func (w *Watcher) Logger() *Logger {
	return w.logger
}

// Stats returns the session statistics. Safe to call while Run is active.
func (w *Watcher) Stats() WatchStats {
	return w.logger.Stats()
}

// Registry returns the watch registry.
func (w *Watcher) Registry() *Registry {
	return w.registry
}

// Run registers the root and processes events until the context is
// cancelled, the backend closes, or no watched directory is left.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := w.registry.RegisterTree(ctx, w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	if w.registry.Len() == 0 {
		return ErrNoWatchedDirectories
	}

	if w.digests != nil {
		err := w.digests.Seed(ctx, w.root, w.config.Rules.IsSource, w.ignore.Skip)
		if err != nil && ctx.Err() == nil {
			log.Component("watch").Warn("failed to seed digests", "error", err)
		}
		log.Component("watch").Debug("seeded source digests", "files", w.digests.Len())
	}

	w.logger.Ready(w.registry.Len(), w.strategy.Name(), w.ruleNames(), w.root)

	for {
		ev, err := w.strategy.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrStrategyClosed) {
				w.logger.Shutdown()
				return nil
			}
			return err
		}

		batch := []Event{ev}
		for len(batch) < maxBatch {
			next, ok := w.strategy.Poll()
			if !ok {
				break
			}
			batch = append(batch, next)
		}

		if w.ProcessBatch(ctx, batch) {
			w.logger.Shutdown()
			return ErrNoWatchedDirectories
		}
	}
}

// ProcessBatch handles events in delivery order, then re-arms every handle
// the batch touched. It reports whether no watched directory is left.
func (w *Watcher) ProcessBatch(ctx context.Context, batch []Event) bool {
	var touched []Handle
	seen := make(map[Handle]bool)

	for _, ev := range batch {
		if ev.Kind == Overflow {
			log.Component("watch").Warn("event overflow, notifications were dropped")
			w.logger.Overflow()
			continue
		}

		h, dir, ok := w.registry.Resolve(ev.Path)
		if !ok {
			log.Component("watch").Debug("dropping event for unwatched directory", "path", ev.Path, "kind", ev.Kind)
			continue
		}
		if w.ignore.Under(w.root, ev.Path) {
			continue
		}

		w.handleEvent(ctx, dir, ev)

		if !seen[h] {
			seen[h] = true
			touched = append(touched, h)
		}
	}

	for _, h := range touched {
		if _, ok := w.registry.Path(h); !ok {
			continue
		}
		if w.registry.Rearm(h) {
			continue
		}
		dir, _ := w.registry.Path(h)
		w.logger.Unregistered(dir)
		w.registry.Invalidate(h)
	}

	w.logger.SetDirectories(w.registry.Len())
	return w.registry.Len() == 0
}

func (w *Watcher) handleEvent(ctx context.Context, dir string, ev Event) {
	logger := log.Component("watch")
	name := ev.Name(dir)
	logger.Log(ctx, log.LevelTrace, "event", "kind", ev.Kind, "dir", dir, "name", name)

	if ev.Kind == Created {
		w.handleCreated(ctx, ev.Path)
		return
	}

	if ev.Kind == Deleted {
		if h, ok := w.registry.Lookup(ev.Path); ok {
			w.logger.Unregistered(ev.Path)
			w.registry.Invalidate(h)
		}
	}

	if w.config.Rules.IsSource(name) {
		w.cleanSource(ev)
		return
	}

	if n := w.pruner.PruneDirs(w.config.Rules.TranslateDir(ev.Path)); n > 0 {
		logger.Debug("pruned empty artifact directories", "path", ev.Path, "count", n)
	}
}

func (w *Watcher) handleCreated(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if !info.IsDir() {
		if w.digests != nil && w.config.Rules.IsSource(filepath.Base(path)) {
			w.digests.Observe(path)
		}
		return
	}

	if w.strategy.Recursive() || w.ignore.Skip(path) {
		return
	}
	n, err := w.registry.RegisterTree(ctx, path)
	if err != nil {
		w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
		return
	}
	w.logger.Registered(path, n)
}

func (w *Watcher) cleanSource(ev Event) {
	if w.digests != nil {
		if ev.Kind == Deleted {
			w.digests.Forget(ev.Path)
		} else if !w.digests.Observe(ev.Path) {
			log.Component("watch").Debug("content unchanged", "path", ev.Path)
			return
		}
	}

	candidates := w.config.Rules.Translate(ev.Path)
	if len(candidates) == 0 {
		return
	}

	w.logger.FileChanged(ev.Path, changeFor(ev.Kind))
	for _, c := range candidates {
		w.pruner.Prune(c)
	}
}

func (w *Watcher) ruleNames() []string {
	names := make([]string, len(w.config.Rules))
	for i, r := range w.config.Rules {
		names[i] = r.Name
	}
	return names
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.registry.Close()
	return w.strategy.Close()
}
