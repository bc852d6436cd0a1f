package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/daemon"
)

var daemonStopFlags struct {
	force bool
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop [--force] <dir>",
	Short: "Stop the daemon watching a directory",
	Long: `Stop the classwatch daemon for <dir>.

Sends a shutdown request over the socket. If the daemon does not exit
within 5 seconds, --force kills it.

Examples:
  classwatch daemon stop ~/work/app
  classwatch daemon stop --force ~/work/app`,
	Args: cobra.ExactArgs(1),
	RunE: runDaemonStop,
}

func init() {
	daemonStopCmd.Flags().BoolVar(&daemonStopFlags.force, "force", false,
		"Force kill if graceful shutdown fails")

	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	_, paths, err := daemonPaths(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	status := daemon.GetStatus(paths)
	if status.Stale {
		_, _ = fmt.Fprintln(out, "Daemon not running (cleaning up stale files)")
		return paths.Cleanup()
	}
	if !status.Running {
		_, _ = fmt.Fprintln(out, "Daemon not running")
		return nil
	}

	_, _ = fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", status.PID)

	if err := requestShutdown(paths); err == nil {
		if waitForExit(status.PID, 5*time.Second) {
			_, _ = fmt.Fprintln(out, "Daemon stopped")
			return nil
		}
	}

	if !daemonStopFlags.force {
		return errors.New("graceful shutdown timed out (use --force to kill)")
	}

	_, _ = fmt.Fprintln(out, "Forcing shutdown...")
	if err := daemon.KillProcess(status.PID); err != nil && daemon.IsProcessRunning(status.PID) {
		return fmt.Errorf("failed to kill daemon: %w", err)
	}
	if !waitForExit(status.PID, 2*time.Second) {
		return errors.New("failed to stop daemon")
	}

	_, _ = fmt.Fprintln(out, "Daemon stopped (forced)")
	return paths.Cleanup()
}

// requestShutdown asks the daemon to stop over its socket.
func requestShutdown(paths *daemon.Paths) error {
	client, err := daemon.Connect(paths.Socket)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	_, err = client.Shutdown()
	return err
}
