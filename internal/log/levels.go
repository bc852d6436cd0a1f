// Package log provides structured logging with verbosity levels for classwatch.
// It wraps log/slog and maps the -v=N convention onto slog levels.
package log

import "log/slog"

// LevelTrace sits below slog.LevelDebug and is used for per-event dumps.
const LevelTrace = slog.Level(-8)

// Verbosity levels accepted by --verbosity.
const (
	VerbosityError = 0 // errors only
	VerbosityWarn  = 1 // + skipped registrations, overflow, failed deletions
	VerbosityInfo  = 2 // + deletions, registrations summary
	VerbosityDebug = 3 // + every classified event and candidate path
	VerbosityTrace = 4 // + raw notifications
)

// VerbosityToLevel maps -v=N to a slog level.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2:
		return slog.LevelInfo
	case v == 3:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelToVerbosity maps a slog level back to -v=N.
func LevelToVerbosity(l slog.Level) int {
	switch {
	case l >= slog.LevelError:
		return VerbosityError
	case l >= slog.LevelWarn:
		return VerbosityWarn
	case l >= slog.LevelInfo:
		return VerbosityInfo
	case l >= slog.LevelDebug:
		return VerbosityDebug
	default:
		return VerbosityTrace
	}
}

// LevelName returns the display name for a level, including TRACE.
func LevelName(l slog.Level) string {
	if l <= LevelTrace {
		return "TRACE"
	}
	return l.String()
}
