package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/daemon"
)

var daemonFlags struct {
	stateDir string
}

// daemonCmd is the parent command for daemon operations.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the watcher in the background",
	Long: `Manage background classwatch processes.

Each watched source root gets its own daemon, identified by the root's
path. Daemon files (socket, PID, log) live in ~/.classwatch unless
--state-dir says otherwise.

Commands:
  start   - Start watching a directory in the background
  stop    - Stop the daemon watching a directory
  status  - Show what a daemon is doing

Examples:
  classwatch daemon start ~/work/app
  classwatch daemon status ~/work/app
  classwatch daemon stop ~/work/app`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&daemonFlags.stateDir, "state-dir", "",
		"Directory for daemon files (default: ~/.classwatch)")

	rootCmd.AddCommand(daemonCmd)
}

// daemonPaths returns the daemon files for the source root named by arg.
func daemonPaths(arg string) (string, *daemon.Paths, error) {
	root, err := sourceRoot(arg)
	if err != nil {
		return "", nil, err
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	if daemonFlags.stateDir != "" {
		dir, err := filepath.Abs(daemonFlags.stateDir)
		if err != nil {
			return "", nil, fmt.Errorf("invalid state directory %s: %w", daemonFlags.stateDir, err)
		}
		return root, daemon.PathsFor(dir, root), nil
	}
	paths, err := daemon.DefaultPaths(root)
	if err != nil {
		return "", nil, err
	}
	return root, paths, nil
}

// waitForExit waits for a process to exit.
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !daemon.IsProcessRunning(pid) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
