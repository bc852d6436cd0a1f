package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/watch"
	"github.com/albertocavalcante/classwatch/internal/log"
)

var watchFlags struct {
	strategy      string
	verbose       bool
	json          bool
	noColor       bool
	dryRun        bool
	cascade       bool
	skipUnchanged bool
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&watchFlags.strategy, "strategy", "auto",
		"Watch strategy (auto, tree, recursive)")
	flags.BoolVar(&watchFlags.verbose, "verbose", false,
		"Show every source change, not only deletions")
	flags.BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	flags.BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")
	flags.BoolVar(&watchFlags.dryRun, "dry-run", false,
		"Report what would be deleted without deleting")
	flags.BoolVar(&watchFlags.cascade, "cascade", false,
		"Keep pruning empty parent directories up to the output root")
	flags.BoolVar(&watchFlags.skipUnchanged, "skip-unchanged", false,
		"Ignore writes that leave a source's content unchanged")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := sourceRoot(args[0])
	if err != nil {
		return err
	}

	w, err := newWatcher(cmd, root, sessionOptions{
		output:  cmd.OutOrStdout(),
		verbose: watchFlags.verbose,
		noColor: watchFlags.noColor,
		json:    watchFlags.json,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	// Setup signal handling for graceful shutdown
	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	err = w.Run(ctx)
	if errors.Is(err, watch.ErrNoWatchedDirectories) {
		log.Warn("stopping: every watched directory is gone", "root", root)
		return nil
	}
	return err
}

// sessionOptions controls how a watch session reports.
type sessionOptions struct {
	output  io.Writer
	verbose bool
	noColor bool
	json    bool
}

// newWatcher builds a watcher for root from the effective configuration.
func newWatcher(cmd *cobra.Command, root string, opts sessionOptions) (*watch.Watcher, error) {
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return nil, err
	}
	rules, err := buildRules(cfg, root)
	if err != nil {
		return nil, err
	}

	return watch.New(watch.Config{
		Root:          root,
		Rules:         rules,
		Strategy:      cfg.Watch.Strategy,
		IgnoreDirs:    cfg.Watch.IgnoreDirs,
		SkipUnchanged: cfg.SkipUnchangedEnabled(),
		Prune:         pruneOptions(cfg),
		Output:        opts.output,
		Verbose:       opts.verbose,
		NoColor:       opts.noColor,
		JSON:          opts.json,
	})
}

// sourceRoot validates the watch argument and makes it absolute.
func sourceRoot(arg string) (string, error) {
	root, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", arg, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", arg, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path must be a directory: %s", arg)
	}
	return root, nil
}
