package watch

import "path/filepath"

// Kind classifies a filesystem notification.
type Kind int

const (
	// Created reports a new file or directory.
	Created Kind = iota + 1
	// Modified reports a content change.
	Modified
	// Deleted reports a removal, or the old name of a rename.
	Deleted
	// Overflow reports that the backend dropped notifications.
	Overflow
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Overflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Event is a single normalized notification. Path is absolute; it is empty
// for Overflow.
type Event struct {
	Kind Kind
	Path string
}

// Name returns the event path relative to dir, the watched directory that
// the event resolved to.
func (e Event) Name(dir string) string {
	rel, err := filepath.Rel(dir, e.Path)
	if err != nil {
		return filepath.Base(e.Path)
	}
	return rel
}

// Handle identifies one directory registration. Handles are never reused
// within a process.
type Handle uint64
