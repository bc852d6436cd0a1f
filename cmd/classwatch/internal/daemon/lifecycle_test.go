package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// shortTempDir creates a short temp directory for Unix socket tests.
// Unix sockets have a path length limit (~104 chars on macOS).
func shortTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "cw")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func TestPathsFor(t *testing.T) {
	a := PathsFor("/run/cw", "/work/app")
	b := PathsFor("/run/cw", "/work/app/")
	c := PathsFor("/run/cw", "/work/other")

	if a.Socket != b.Socket {
		t.Errorf("equivalent roots got different sockets: %s, %s", a.Socket, b.Socket)
	}
	if a.Socket == c.Socket {
		t.Errorf("different roots share socket %s", a.Socket)
	}
	if filepath.Dir(a.Socket) != "/run/cw" || !strings.HasSuffix(a.Socket, ".sock") {
		t.Errorf("unexpected socket path %s", a.Socket)
	}
	if strings.TrimSuffix(a.PID, ".pid") != strings.TrimSuffix(a.Socket, ".sock") {
		t.Errorf("PID and socket names differ: %s, %s", a.PID, a.Socket)
	}
}

func TestDefaultPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	paths, err := DefaultPaths("/work/app")
	if err != nil {
		t.Fatal(err)
	}
	if paths.Dir != filepath.Join(home, DefaultDaemonDir) {
		t.Errorf("Dir = %s", paths.Dir)
	}
}

func TestPaths_PIDRoundTrip(t *testing.T) {
	paths := PathsFor(filepath.Join(t.TempDir(), "nested"), "/work/app")

	if err := paths.WritePID(); err != nil {
		t.Fatal(err)
	}
	pid, err := paths.ReadPID()
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("ReadPID() = %d, want %d", pid, os.Getpid())
	}

	info, err := os.Stat(paths.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("daemon dir permissions = %o, want 700", perm)
	}
}

func TestPaths_ReadPID(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{"valid", "1234", 1234, false},
		{"whitespace", "  1234\n", 1234, false},
		{"garbage", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := PathsFor(t.TempDir(), "/work/app")
			if err := os.WriteFile(paths.PID, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			got, err := paths.ReadPID()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadPID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ReadPID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPaths_Cleanup(t *testing.T) {
	paths := PathsFor(t.TempDir(), "/work/app")

	// Nothing to remove is fine.
	if err := paths.Cleanup(); err != nil {
		t.Fatalf("Cleanup() on empty dir: %v", err)
	}

	for _, p := range []string{paths.PID, paths.Socket} {
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := paths.Cleanup(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{paths.PID, paths.Socket} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", p)
		}
	}
}

func TestIsProcessRunning(t *testing.T) {
	if !IsProcessRunning(os.Getpid()) {
		t.Error("current process should be running")
	}
	for _, pid := range []int{0, -1} {
		if IsProcessRunning(pid) {
			t.Errorf("IsProcessRunning(%d) = true", pid)
		}
	}
}

func TestGetStatus(t *testing.T) {
	t.Run("no PID file", func(t *testing.T) {
		status := GetStatus(PathsFor(t.TempDir(), "/work/app"))
		if status.Running || status.Stale || status.PID != 0 {
			t.Errorf("GetStatus() = %+v", status)
		}
	})

	t.Run("running", func(t *testing.T) {
		paths := PathsFor(t.TempDir(), "/work/app")
		if err := paths.WritePID(); err != nil {
			t.Fatal(err)
		}
		status := GetStatus(paths)
		if !status.Running || status.PID != os.Getpid() {
			t.Errorf("GetStatus() = %+v", status)
		}
	})

	t.Run("stale", func(t *testing.T) {
		paths := PathsFor(t.TempDir(), "/work/app")
		// PIDs this large are not handed out.
		if err := os.WriteFile(paths.PID, []byte(strconv.Itoa(1<<30)), 0o600); err != nil {
			t.Fatal(err)
		}
		status := GetStatus(paths)
		if status.Running || !status.Stale {
			t.Errorf("GetStatus() = %+v", status)
		}
	})
}

func TestCleanupStale(t *testing.T) {
	t.Run("stale PID and socket", func(t *testing.T) {
		paths := PathsFor(t.TempDir(), "/work/app")
		_ = os.WriteFile(paths.PID, []byte(strconv.Itoa(1<<30)), 0o600)
		_ = os.WriteFile(paths.Socket, nil, 0o600)

		cleaned, err := CleanupStale(paths)
		if err != nil || !cleaned {
			t.Fatalf("CleanupStale() = %v, %v", cleaned, err)
		}
		if _, err := os.Stat(paths.Socket); !os.IsNotExist(err) {
			t.Error("socket should be removed")
		}
	})

	t.Run("orphan socket", func(t *testing.T) {
		paths := PathsFor(t.TempDir(), "/work/app")
		_ = os.WriteFile(paths.Socket, nil, 0o600)

		cleaned, err := CleanupStale(paths)
		if err != nil || !cleaned {
			t.Fatalf("CleanupStale() = %v, %v", cleaned, err)
		}
	})

	t.Run("running daemon is left alone", func(t *testing.T) {
		paths := PathsFor(t.TempDir(), "/work/app")
		if err := paths.WritePID(); err != nil {
			t.Fatal(err)
		}

		cleaned, err := CleanupStale(paths)
		if err != nil || cleaned {
			t.Fatalf("CleanupStale() = %v, %v", cleaned, err)
		}
		if _, err := os.Stat(paths.PID); err != nil {
			t.Error("PID file of a running daemon must stay")
		}
	})

	t.Run("nothing to do", func(t *testing.T) {
		cleaned, err := CleanupStale(PathsFor(t.TempDir(), "/work/app"))
		if err != nil || cleaned {
			t.Fatalf("CleanupStale() = %v, %v", cleaned, err)
		}
	})
}
