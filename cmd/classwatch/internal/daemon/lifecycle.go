package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/cespare/xxhash/v2"
)

// DefaultDaemonDir is the directory under the user's home holding daemon files.
const DefaultDaemonDir = ".classwatch"

// Paths holds the files of the daemon watching one source root.
type Paths struct {
	Dir    string // directory containing daemon files
	Socket string // Unix socket path
	PID    string // PID file path
	Log    string // Log file path
}

// PathsFor returns the daemon files for root inside dir. Files are named
// after a hash of the root so that each watched tree gets its own daemon
// and socket paths stay short.
func PathsFor(dir, root string) *Paths {
	name := fmt.Sprintf("%016x", xxhash.Sum64String(filepath.Clean(root)))
	return &Paths{
		Dir:    dir,
		Socket: filepath.Join(dir, name+".sock"),
		PID:    filepath.Join(dir, name+".pid"),
		Log:    filepath.Join(dir, name+".log"),
	}
}

// DefaultPaths returns the daemon files for root under ~/.classwatch.
func DefaultPaths(root string) (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return PathsFor(filepath.Join(homeDir, DefaultDaemonDir), root), nil
}

// EnsureDir ensures the daemon directory exists with proper permissions.
func (p *Paths) EnsureDir() error {
	return os.MkdirAll(p.Dir, 0o700)
}

// WritePID writes the current process ID to the PID file.
func (p *Paths) WritePID() error {
	if err := p.EnsureDir(); err != nil {
		return err
	}
	return os.WriteFile(p.PID, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

// ReadPID reads the process ID from the PID file.
func (p *Paths) ReadPID() (int, error) {
	data, err := os.ReadFile(p.PID)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file contents: %w", err)
	}
	return pid, nil
}

// Cleanup removes the PID file and the socket. Missing files are fine.
func (p *Paths) Cleanup() error {
	var errs []error
	if err := os.Remove(p.PID); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("failed to remove PID file: %w", err))
	}
	if err := os.Remove(p.Socket); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("failed to remove socket: %w", err))
	}
	return errors.Join(errs...)
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds. Signal 0 checks that it exists.
	return process.Signal(syscall.Signal(0)) == nil
}

// Status is what the PID file says about the daemon.
type Status struct {
	Running bool
	PID     int
	Stale   bool // PID file exists but the process is gone
}

// GetStatus returns the daemon status for paths.
func GetStatus(paths *Paths) Status {
	pid, err := paths.ReadPID()
	if err != nil {
		return Status{}
	}
	if IsProcessRunning(pid) {
		return Status{Running: true, PID: pid}
	}
	return Status{PID: pid, Stale: true}
}

// CleanupStale removes files left behind by a daemon that is no longer
// running, including an orphan socket without a PID file. It reports
// whether anything was removed.
func CleanupStale(paths *Paths) (bool, error) {
	status := GetStatus(paths)
	if status.Running {
		return false, nil
	}

	if !status.Stale {
		if _, err := os.Stat(paths.Socket); err != nil {
			return false, nil
		}
		if err := os.Remove(paths.Socket); err != nil {
			return false, fmt.Errorf("failed to remove orphan socket: %w", err)
		}
		return true, nil
	}

	if err := paths.Cleanup(); err != nil {
		return false, err
	}
	return true, nil
}

// KillProcess sends SIGKILL to a process.
func KillProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	return process.Kill()
}
