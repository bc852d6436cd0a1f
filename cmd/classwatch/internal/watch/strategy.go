package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/albertocavalcante/classwatch/pkg/config"
)

var (
	// ErrUnknownStrategy is returned for a strategy name that is not tree,
	// recursive or auto.
	ErrUnknownStrategy = errors.New("unknown watch strategy")

	// ErrStrategyClosed is returned by Next once the backend is closed.
	ErrStrategyClosed = errors.New("watch strategy closed")
)

// Strategy is an OS notification backend. It is driven by a single
// goroutine: Add, Remove, Next and Poll are never called concurrently.
type Strategy interface {
	// Name is "tree" or "recursive".
	Name() string

	// Recursive reports whether Add covers the whole subtree.
	Recursive() bool

	// Add starts watching dir.
	Add(dir string) error

	// Remove stops watching dir. Removing a directory that is no longer
	// watched is not an error worth reporting.
	Remove(dir string) error

	// Next blocks for the next event.
	Next(ctx context.Context) (Event, error)

	// Poll returns an already queued event without blocking.
	Poll() (Event, bool)

	Close() error
}

// ResolveStrategy maps auto to the native choice for goos. Windows and
// macOS have native recursive watches; everything else gets the tree walk.
func ResolveStrategy(name, goos string) (string, error) {
	switch name {
	case config.StrategyTree, config.StrategyRecursive:
		return name, nil
	case config.StrategyAuto, "":
		if goos == "windows" || goos == "darwin" {
			return config.StrategyRecursive, nil
		}
		return config.StrategyTree, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// NewStrategy creates the backend for name on the running OS.
func NewStrategy(name string) (Strategy, error) {
	resolved, err := ResolveStrategy(name, runtime.GOOS)
	if err != nil {
		return nil, err
	}
	if resolved == config.StrategyRecursive {
		return newRecursiveStrategy(), nil
	}
	return newTreeStrategy()
}

// kindForRename classifies a rename notification by whether the path still
// exists: the old name reads as a deletion, the new one as a creation.
func kindForRename(path string) Kind {
	if _, err := os.Lstat(path); err == nil {
		return Created
	}
	return Deleted
}
