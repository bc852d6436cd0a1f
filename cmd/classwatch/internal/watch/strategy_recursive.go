package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/rjeczalik/notify"

	"github.com/albertocavalcante/classwatch/internal/log"
)

// recursiveBuffer sizes the delivery channel. notify never blocks on a full
// channel; it drops the event instead.
const recursiveBuffer = 1 << 10

// recursiveStrategy keeps one native recursive watch per root. On Linux
// notify emulates it with inotify, so it is valid everywhere.
type recursiveStrategy struct {
	ch     chan notify.EventInfo
	roots  []string
	closed bool
}

func newRecursiveStrategy() *recursiveStrategy {
	return &recursiveStrategy{ch: make(chan notify.EventInfo, recursiveBuffer)}
}

func (s *recursiveStrategy) Name() string    { return "recursive" }
func (s *recursiveStrategy) Recursive() bool { return true }

func (s *recursiveStrategy) Add(dir string) error {
	if err := notify.Watch(filepath.Join(dir, "..."), s.ch, notify.All); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if !slices.Contains(s.roots, dir) {
		s.roots = append(s.roots, dir)
	}
	return nil
}

// Remove drops dir. notify can only stop a channel as a whole, so the
// remaining roots are watched again.
func (s *recursiveStrategy) Remove(dir string) error {
	i := slices.Index(s.roots, dir)
	if i < 0 {
		return nil
	}
	s.roots = slices.Delete(s.roots, i, i+1)

	notify.Stop(s.ch)
	for _, root := range s.roots {
		if err := notify.Watch(filepath.Join(root, "..."), s.ch, notify.All); err != nil {
			log.Component("watch").Warn("cannot restore recursive watch", "dir", root, "error", err)
		}
	}
	return nil
}

func (s *recursiveStrategy) Next(ctx context.Context) (Event, error) {
	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case ei, ok := <-s.ch:
			if !ok {
				return Event{}, ErrStrategyClosed
			}
			if e, ok := convertNotify(ei); ok {
				return e, nil
			}
		}
	}
}

func (s *recursiveStrategy) Poll() (Event, bool) {
	for {
		select {
		case ei, ok := <-s.ch:
			if !ok {
				return Event{}, false
			}
			if e, ok := convertNotify(ei); ok {
				return e, true
			}
		default:
			return Event{}, false
		}
	}
}

func (s *recursiveStrategy) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	notify.Stop(s.ch)
	close(s.ch)
	return nil
}

func convertNotify(ei notify.EventInfo) (Event, bool) {
	path := ei.Path()
	switch ev := ei.Event(); {
	case ev&notify.Remove != 0:
		return Event{Kind: Deleted, Path: path}, true
	case ev&notify.Rename != 0:
		return Event{Kind: kindForRename(path), Path: path}, true
	case ev&notify.Create != 0:
		return Event{Kind: Created, Path: path}, true
	case ev&notify.Write != 0:
		return Event{Kind: Modified, Path: path}, true
	default:
		return Event{}, false
	}
}
