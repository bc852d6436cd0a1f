package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// ChangeType represents the type of file change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

func changeFor(k Kind) ChangeType {
	switch k {
	case Created:
		return ChangeAdded
	case Deleted:
		return ChangeDeleted
	default:
		return ChangeModified
	}
}

// Logger handles session output: what is watched, which sources changed and
// which artifacts were removed. It implements prune.Reporter.
type Logger struct {
	writer  io.Writer
	isTTY   bool
	verbose bool
	noColor bool
	jsonOut bool

	statsMu sync.Mutex
	stats   WatchStats
}

// WatchStats tracks statistics for the watch session.
type WatchStats struct {
	Root        string
	Strategy    string
	Directories int

	ChangeCount   int
	DeletionCount int
	OverflowCount int
	ErrorCount    int
	StartTime     time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		writer:  writer,
		isTTY:   isTTY,
		verbose: cfg.Verbose,
		noColor: cfg.NoColor,
		jsonOut: cfg.JSON,
		stats: WatchStats{
			StartTime: time.Now(),
		},
	}
}

// Ready logs the initial ready message.
func (l *Logger) Ready(dirCount int, strategy string, rules []string, path string) {
	l.statsMu.Lock()
	l.stats.Root = path
	l.stats.Strategy = strategy
	l.stats.Directories = dirCount
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":       "ready",
			"directories": dirCount,
			"strategy":    strategy,
			"rules":       rules,
			"path":        path,
		})
		return
	}

	l.printf("classwatch: watching %d directories in %s (%s)\n", dirCount, path, strategy)
	if len(rules) > 0 {
		l.printf("classwatch: rules: %s\n", strings.Join(rules, ", "))
	}
	l.println("classwatch: ready")
	l.println()
}

// FileChanged logs a source change that triggers cleanup.
func (l *Logger) FileChanged(path string, change ChangeType) {
	l.statsMu.Lock()
	l.stats.ChangeCount++
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "file_changed",
			"path":   path,
			"change": string(change),
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] %s %s\n", l.timestamp(), l.colorize(string(change), change), path)
	}
}

// Registered logs a directory added while running.
func (l *Logger) Registered(dir string, count int) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":       "registered",
			"path":        dir,
			"directories": count,
			"time":        time.Now().Format(time.RFC3339),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] watching %s (%d directories)\n", l.timestamp(), dir, count)
	}
}

// Unregistered logs a watched directory that went away.
func (l *Logger) Unregistered(dir string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "unregistered",
			"path":  dir,
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] no longer watching %s\n", l.timestamp(), dir)
	}
}

// Deleted logs a removed artifact.
func (l *Logger) Deleted(path string, isDir bool) {
	l.statsMu.Lock()
	l.stats.DeletionCount++
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "deleted",
			"path":  path,
			"dir":   isDir,
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	if isDir {
		path += string(os.PathSeparator)
	}
	l.printf("[%s] %s %s\n", l.timestamp(), l.colorize(string(ChangeDeleted), ChangeDeleted), path)
}

// DeleteFailed logs an artifact that could not be removed.
func (l *Logger) DeleteFailed(path string, err error) {
	l.Error(fmt.Errorf("delete %s: %w", path, err))
}

// Overflow logs dropped notifications.
func (l *Logger) Overflow() {
	l.statsMu.Lock()
	l.stats.OverflowCount++
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "overflow",
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	l.printf("[%s] %s notifications dropped, some changes may be missed\n",
		l.timestamp(), l.colorize("!", ChangeModified))
}

// Error logs an error.
func (l *Logger) Error(err error) {
	l.statsMu.Lock()
	l.stats.ErrorCount++
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "error",
			"error": err.Error(),
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	xmark := l.colorize("✗", ChangeDeleted) // xmark
	l.printf("[%s] %s error: %v\n", l.timestamp(), xmark, err)
}

// Shutdown logs the shutdown message with statistics.
func (l *Logger) Shutdown() {
	l.statsMu.Lock()
	stats := l.stats
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":     "shutdown",
			"changes":   stats.ChangeCount,
			"deletions": stats.DeletionCount,
			"errors":    stats.ErrorCount,
			"duration":  time.Since(stats.StartTime).String(),
		})
		return
	}

	l.println()
	l.printf("classwatch: shutting down (%d changes, %d deletions, %d errors)\n",
		stats.ChangeCount, stats.DeletionCount, stats.ErrorCount)
}

// SetDirectories records how many directories are currently watched.
func (l *Logger) SetDirectories(n int) {
	l.statsMu.Lock()
	l.stats.Directories = n
	l.statsMu.Unlock()
}

// Stats returns the current watch statistics.
func (l *Logger) Stats() WatchStats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.stats
}

// timestamp returns the current time formatted as HH:MM:SS.
func (l *Logger) timestamp() string {
	return time.Now().Format("15:04:05")
}

// colorize applies ANSI color codes based on change type.
func (l *Logger) colorize(s string, change ChangeType) string {
	if l.noColor || !l.isTTY {
		return s
	}

	var color string
	switch change {
	case ChangeAdded:
		color = "\033[32m" // green
	case ChangeModified:
		color = "\033[33m" // yellow
	case ChangeDeleted:
		color = "\033[31m" // red
	default:
		return s
	}
	return color + s + "\033[0m"
}

func (l *Logger) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.println(`{"event":"internal_error","error":"json marshal failed"}`)
		return
	}
	l.println(string(data))
}

func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.writer, format, args...)
}

func (l *Logger) println(args ...any) {
	_, _ = fmt.Fprintln(l.writer, args...)
}
