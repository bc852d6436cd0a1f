package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/daemon"
	"github.com/albertocavalcante/classwatch/internal/log"
)

var daemonStartFlags struct {
	foreground    bool
	strategy      string
	dryRun        bool
	cascade       bool
	skipUnchanged bool
}

var daemonStartCmd = &cobra.Command{
	Use:   "start [flags] <dir>",
	Short: "Start watching a directory in the background",
	Long: `Start a classwatch daemon for <dir>.

By default the daemon detaches and writes its session output to a log
file. Use --foreground to keep it attached for debugging.

Examples:
  classwatch daemon start ~/work/app
  classwatch daemon start --foreground --dry-run ~/work/app`,
	Args: cobra.ExactArgs(1),
	RunE: runDaemonStart,
}

func init() {
	flags := daemonStartCmd.Flags()
	flags.BoolVar(&daemonStartFlags.foreground, "foreground", false,
		"Run in foreground (don't daemonize)")
	flags.StringVar(&daemonStartFlags.strategy, "strategy", "auto",
		"Watch strategy (auto, tree, recursive)")
	flags.BoolVar(&daemonStartFlags.dryRun, "dry-run", false,
		"Report what would be deleted without deleting")
	flags.BoolVar(&daemonStartFlags.cascade, "cascade", false,
		"Keep pruning empty parent directories up to the output root")
	flags.BoolVar(&daemonStartFlags.skipUnchanged, "skip-unchanged", false,
		"Ignore writes that leave a source's content unchanged")

	daemonCmd.AddCommand(daemonStartCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	root, paths, err := daemonPaths(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	status := daemon.GetStatus(paths)
	if status.Running {
		_, _ = fmt.Fprintf(out, "Daemon already running for %s (PID: %d)\n", root, status.PID)
		return nil
	}
	if status.Stale {
		if _, err := daemon.CleanupStale(paths); err != nil {
			log.Warn("failed to clean up stale files", "error", err)
		}
	}

	if daemonStartFlags.foreground {
		return runDaemonForeground(cmd, root, paths)
	}
	return runDaemonBackground(cmd, root, paths)
}

// runDaemonForeground hosts the watch session until it ends or the
// daemon is told to stop.
func runDaemonForeground(cmd *cobra.Command, root string, paths *daemon.Paths) error {
	out := cmd.OutOrStdout()

	w, err := newWatcher(cmd, root, sessionOptions{
		output:  out,
		verbose: true,
		noColor: true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	_, _ = fmt.Fprintf(out, "Starting daemon in foreground (PID: %d)\n", os.Getpid())
	_, _ = fmt.Fprintf(out, "Socket: %s\n", paths.Socket)

	server := daemon.NewServer(daemon.ServerConfig{
		Paths:   paths,
		Session: w,
		Version: Version,
		Root:    root,
	})
	return server.Start(context.Background())
}

// runDaemonBackground re-runs this command in foreground mode as a
// detached process writing to the daemon log.
func runDaemonBackground(cmd *cobra.Command, root string, paths *daemon.Paths) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if err := paths.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create daemon directory: %w", err)
	}
	logFile, err := os.OpenFile(paths.Log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	child := exec.Command(executable, foregroundArgs(cmd, root)...)
	child.Stdout = logFile
	child.Stderr = logFile
	child.SysProcAttr = daemonSysProcAttr()

	if err := child.Start(); err != nil {
		_ = logFile.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	// The child keeps its own handle.
	_ = logFile.Close()
	_ = child.Process.Release()

	ping := waitForStart(paths, root, 5*time.Second)
	if ping == nil {
		return fmt.Errorf("daemon failed to start (check %s for details)", paths.Log)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Daemon started for %s (PID: %d)\n", root, ping.PID)
	_, _ = fmt.Fprintf(out, "Socket: %s\n", paths.Socket)
	_, _ = fmt.Fprintf(out, "Log: %s\n", paths.Log)
	return nil
}

// foregroundArgs rebuilds the command line for the detached child,
// forwarding every flag the user set.
func foregroundArgs(cmd *cobra.Command, root string) []string {
	args := []string{"daemon", "start", "--foreground"}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed || f.Name == "foreground" {
			return
		}
		args = append(args, "--"+f.Name+"="+f.Value.String())
	})
	return append(args, root)
}

// waitForStart waits until a daemon serving root answers on its socket
// and returns its ping, or nil on timeout.
func waitForStart(paths *daemon.Paths, root string, timeout time.Duration) *daemon.PingResult {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if client, err := daemon.Connect(paths.Socket); err == nil {
			ping, err := client.Ping()
			_ = client.Close()
			if err == nil && ping.Root == root {
				return ping
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}
