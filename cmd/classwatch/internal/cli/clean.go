package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/prune"
	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/watch"
)

var cleanFlags struct {
	dryRun  bool
	cascade bool
	json    bool
}

var cleanCmd = &cobra.Command{
	Use:   "clean [--dry-run] <file>...",
	Short: "Delete the artifacts derived from source files once",
	Long: `Runs the cleanup the watcher performs for a modified source, once,
without watching. A directory argument prunes the matching artifact
directory if it is empty.

Useful after a bulk delete or rename that happened while nothing was
watching.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanFlags.dryRun, "dry-run", false,
		"Report what would be deleted without deleting")
	cleanCmd.Flags().BoolVar(&cleanFlags.cascade, "cascade", false,
		"Keep pruning empty parent directories up to the output root")
	cleanCmd.Flags().BoolVar(&cleanFlags.json, "json", false,
		"Report deletions as JSON lines")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, rules, err := oneShotRules(cmd)
	if err != nil {
		return err
	}

	logger := watch.NewLogger(watch.LoggerConfig{
		Writer:  cmd.OutOrStdout(),
		NoColor: true,
		JSON:    cleanFlags.json,
	})
	opts := pruneOptions(cfg)
	opts.Reporter = logger
	pruner := prune.New(opts)

	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid path %s: %w", arg, err)
		}

		if info, err := os.Stat(path); err == nil && info.IsDir() {
			pruner.PruneDirs(rules.TranslateDir(path))
			continue
		}
		for _, c := range rules.Translate(path) {
			pruner.Prune(c)
		}
	}

	if logger.Stats().ErrorCount > 0 {
		return fmt.Errorf("%d artifacts could not be deleted", logger.Stats().ErrorCount)
	}
	return nil
}
