package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/daemon"
)

var daemonStatusFlags struct {
	jsonOutput bool
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status [--json] <dir>",
	Short: "Show what the daemon for a directory is doing",
	Long: `Show the status of the classwatch daemon for <dir>: whether it runs,
its PID and uptime, and the counters of its watch session.

Examples:
  classwatch daemon status ~/work/app
  classwatch daemon status --json ~/work/app`,
	Args: cobra.ExactArgs(1),
	RunE: runDaemonStatus,
}

func init() {
	daemonStatusCmd.Flags().BoolVar(&daemonStatusFlags.jsonOutput, "json", false,
		"Output as JSON")

	daemonCmd.AddCommand(daemonStatusCmd)
}

// DaemonStatusOutput is the JSON output format for daemon status.
type DaemonStatusOutput struct {
	Running    bool                 `json:"running"`
	Stale      bool                 `json:"stale,omitempty"`
	PID        int                  `json:"pid,omitempty"`
	SocketPath string               `json:"socket_path"`
	Root       string               `json:"root,omitempty"`
	Version    string               `json:"version,omitempty"`
	Uptime     string               `json:"uptime,omitempty"`
	Session    *daemon.StatusResult `json:"session,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	_, paths, err := daemonPaths(args[0])
	if err != nil {
		return err
	}

	status := daemon.GetStatus(paths)
	output := DaemonStatusOutput{
		Running:    status.Running,
		Stale:      status.Stale,
		PID:        status.PID,
		SocketPath: paths.Socket,
	}

	if status.Running {
		if err := enrichStatusFromDaemon(paths, &output); err != nil {
			output.Error = err.Error()
		}
	}

	if daemonStatusFlags.jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}
	writeDaemonStatusText(cmd.OutOrStdout(), output)
	return nil
}

// enrichStatusFromDaemon asks the running daemon for its session state.
func enrichStatusFromDaemon(paths *daemon.Paths, output *DaemonStatusOutput) error {
	client, err := daemon.Connect(paths.Socket)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = client.Close() }()

	ping, err := client.Ping()
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	output.Version = ping.Version
	output.Root = ping.Root
	output.Uptime = ping.Uptime

	session, err := client.Status()
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}
	output.Session = session
	return nil
}

func writeDaemonStatusText(w io.Writer, output DaemonStatusOutput) {
	printf := func(format string, args ...any) {
		_, _ = fmt.Fprintf(w, format, args...)
	}

	if !output.Running {
		printf("Daemon: not running\n")
		if output.Stale {
			printf("  (stale PID file found for PID %d)\n", output.PID)
		}
		return
	}

	printf("Daemon: running (PID: %d)\n", output.PID)
	printf("Socket: %s\n", output.SocketPath)
	if output.Root != "" {
		printf("Root: %s\n", output.Root)
	}
	if output.Version != "" {
		printf("Version: %s\n", output.Version)
	}
	if output.Uptime != "" {
		printf("Uptime: %s\n", formatUptime(output.Uptime))
	}

	if s := output.Session; s != nil {
		if s.Watching {
			printf("Watching: %s (%s, %d directories)\n", s.Root, s.Strategy, s.Directories)
		} else {
			printf("Watching: no (%s)\n", s.StopReason)
		}
		printf("Changes: %d  Deletions: %d  Errors: %d\n", s.Changes, s.Deletions, s.Errors)
		if s.Overflows > 0 {
			printf("Overflows: %d\n", s.Overflows)
		}
	}

	if output.Error != "" {
		printf("Warning: %s\n", output.Error)
	}
}

// formatUptime formats the uptime string for display.
func formatUptime(uptime string) string {
	d, err := time.ParseDuration(uptime)
	if err != nil {
		return uptime
	}

	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
