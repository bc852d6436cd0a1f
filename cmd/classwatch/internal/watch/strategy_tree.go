package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/classwatch/internal/log"
)

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// treeStrategy watches one directory per fsnotify watch. New directories
// must be registered by the caller as they appear.
type treeStrategy struct {
	fs *fsnotify.Watcher
}

func newTreeStrategy() (*treeStrategy, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &treeStrategy{fs: w}, nil
}

func (s *treeStrategy) Name() string    { return "tree" }
func (s *treeStrategy) Recursive() bool { return false }

func (s *treeStrategy) Add(dir string) error {
	if err := s.fs.Add(dir); err != nil {
		if isWatchLimitError(err) {
			return fmt.Errorf("inotify watch limit reached for %s: %w\n"+
				"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288",
				dir, errors.Join(ErrWatchLimitReached, err))
		}
		return err
	}
	return nil
}

func (s *treeStrategy) Remove(dir string) error {
	err := s.fs.Remove(dir)
	if errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return nil
	}
	return err
}

func (s *treeStrategy) Next(ctx context.Context) (Event, error) {
	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case ev, ok := <-s.fs.Events:
			if !ok {
				return Event{}, ErrStrategyClosed
			}
			if e, ok := convertFsnotify(ev); ok {
				return e, nil
			}
		case err, ok := <-s.fs.Errors:
			if !ok {
				return Event{}, ErrStrategyClosed
			}
			if e, ok := convertFsnotifyError(err); ok {
				return e, nil
			}
		}
	}
}

func (s *treeStrategy) Poll() (Event, bool) {
	for {
		select {
		case ev, ok := <-s.fs.Events:
			if !ok {
				return Event{}, false
			}
			if e, ok := convertFsnotify(ev); ok {
				return e, true
			}
		case err, ok := <-s.fs.Errors:
			if !ok {
				return Event{}, false
			}
			if e, ok := convertFsnotifyError(err); ok {
				return e, true
			}
		default:
			return Event{}, false
		}
	}
}

func (s *treeStrategy) Close() error {
	return s.fs.Close()
}

// convertFsnotify drops chmod-only notifications.
func convertFsnotify(ev fsnotify.Event) (Event, bool) {
	switch {
	case ev.Has(fsnotify.Remove):
		return Event{Kind: Deleted, Path: ev.Name}, true
	case ev.Has(fsnotify.Rename):
		return Event{Kind: kindForRename(ev.Name), Path: ev.Name}, true
	case ev.Has(fsnotify.Create):
		return Event{Kind: Created, Path: ev.Name}, true
	case ev.Has(fsnotify.Write):
		return Event{Kind: Modified, Path: ev.Name}, true
	default:
		return Event{}, false
	}
}

// convertFsnotifyError turns a queue overflow into an Overflow event. Other
// backend errors are logged and dropped.
func convertFsnotifyError(err error) (Event, bool) {
	if errors.Is(err, fsnotify.ErrEventOverflow) {
		return Event{Kind: Overflow}, true
	}
	log.Component("watch").Warn("watcher error", "error", err)
	return Event{}, false
}

// isWatchLimitError checks if an error is due to inotify watch limits.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}
