package watcher

import (
	"context"
	"time"
)

// Operation represents the kind of change observed on a chunk file.
type Operation int

const (
	// OpAdd indicates a new file appeared in the directory.
	OpAdd Operation = iota
	// OpChange indicates an existing file's contents changed.
	OpChange
	// OpUnlink indicates a file was removed.
	OpUnlink
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpChange:
		return "change"
	case OpUnlink:
		return "unlink"
	default:
		return "unknown"
	}
}

// FileEvent represents one observed change, keyed by absolute path.
type FileEvent struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Watcher defines the interface for observing a single, non-recursive
// directory for chunk file changes.
type Watcher interface {
	// Start begins watching path. The watcher runs until Stop is called or
	// ctx is cancelled.
	Start(ctx context.Context, path string) error

	// Stop stops the watcher and releases resources. Safe to call more
	// than once.
	Stop() error

	// Events returns the channel of settled file events.
	Events() <-chan FileEvent

	// Errors returns the channel of non-fatal watcher errors.
	Errors() <-chan error
}

// Options configures watcher behavior.
type Options struct {
	// SettleWindow is how long the watched directory must go without a new
	// raw event before pending events are emitted. Default: 500ms.
	SettleWindow time.Duration

	// PollInterval is the scan interval used by the polling fallback.
	// Default: 100ms.
	PollInterval time.Duration

	// EventBufferSize is the size of the output event channel buffer.
	EventBufferSize int
}

// DefaultOptions returns memoria's default watcher options.
func DefaultOptions() Options {
	return Options{
		SettleWindow:    500 * time.Millisecond,
		PollInterval:    100 * time.Millisecond,
		EventBufferSize: 256,
	}
}

// WithDefaults returns o with zero-valued fields replaced by defaults.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.SettleWindow == 0 {
		o.SettleWindow = d.SettleWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = d.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = d.EventBufferSize
	}
	return o
}

// isIgnoredName reports whether a directory entry's base name should never
// surface as a chunk event: dotfiles and dotfolders.
func isIgnoredName(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
