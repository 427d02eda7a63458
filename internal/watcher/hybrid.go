package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HybridWatcher watches a single, non-recursive directory using fsnotify as
// the primary mechanism, falling back to polling if fsnotify is unavailable.
// Raw events are settled before being surfaced: a path that fires several
// times in quick succession (an editor's write-then-rename, a slow copy)
// produces one event. Pending events are emitted together once the whole
// directory has gone without a new raw event for the settle window.
type HybridWatcher struct {
	fsWatcher      *fsnotify.Watcher
	pollWatcher    *PollingWatcher
	useFsnotify    bool
	events         chan FileEvent
	errors         chan error
	stopCh         chan struct{}
	rootPath       string
	opts           Options
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64

	settleMu    sync.Mutex
	settling    map[string]*settlingEvent
	settleTimer *time.Timer
}

// settlingEvent tracks a path's pending event plus the operation it first
// arrived with in this settle window, which is all settle needs to decide
// whether an add that was immediately undone should be dropped entirely.
type settlingEvent struct {
	first Operation
	event FileEvent
}

var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a hybrid watcher with the given options.
// Attempts to use fsnotify first, falls back to polling if it fails.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		events:   make(chan FileEvent, opts.EventBufferSize),
		errors:   make(chan error, 10),
		stopCh:   make(chan struct{}),
		opts:     opts,
		settling: make(map[string]*settlingEvent),
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		h.fsWatcher = fsw
		h.useFsnotify = true
	} else {
		h.useFsnotify = false
		h.pollWatcher = NewPollingWatcher(opts.PollInterval)
	}

	return h, nil
}

// Start begins watching the top level of path (no recursion into
// subdirectories).
func (h *HybridWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	h.rootPath = absPath

	if h.useFsnotify {
		return h.startFsnotify(ctx)
	}
	return h.startPolling(ctx)
}

func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	if err := h.fsWatcher.Add(h.rootPath); err != nil {
		return fmt.Errorf("add directory to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

func (h *HybridWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case event, ok := <-h.pollWatcher.Events():
				if !ok {
					return
				}
				h.settle(event)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	return h.pollWatcher.Start(ctx, h.rootPath)
}

// handleFsnotifyEvent converts and filters fsnotify events. Only top-level
// regular files not starting with a dot are forwarded; anything involving a
// subdirectory (including the directory entries themselves) is ignored.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if isIgnoredName(name) {
		return
	}
	if filepath.Dir(event.Name) != h.rootPath {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpAdd
	case event.Op&fsnotify.Write != 0:
		op = OpChange
	case event.Op&fsnotify.Remove != 0:
		op = OpUnlink
	case event.Op&fsnotify.Rename != 0:
		op = OpUnlink
	default:
		return
	}

	h.settle(FileEvent{
		Path:      event.Name,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// settle holds ev until the directory has gone without a new raw event for
// the settle window, then emits it. A path that sees an unlink after nothing but its own add within
// the window is dropped entirely: the file never existed long enough for
// anyone downstream to care about it. Any other sequence just keeps the most
// recent operation, since reconciliation treats add and change identically
// and only distinguishes "present" from "gone".
func (h *HybridWatcher) settle(ev FileEvent) {
	h.settleMu.Lock()
	defer h.settleMu.Unlock()

	if pending, ok := h.settling[ev.Path]; ok {
		if pending.first == OpAdd && pending.event.Operation == OpAdd && ev.Operation == OpUnlink {
			delete(h.settling, ev.Path)
		} else {
			pending.event = ev
		}
	} else {
		h.settling[ev.Path] = &settlingEvent{first: ev.Operation, event: ev}
	}

	if h.settleTimer != nil {
		h.settleTimer.Stop()
	}
	h.settleTimer = time.AfterFunc(h.opts.SettleWindow, h.flushSettled)
}

// flushSettled emits every event that survived its settle window.
func (h *HybridWatcher) flushSettled() {
	h.settleMu.Lock()
	pending := h.settling
	h.settling = make(map[string]*settlingEvent)
	h.settleMu.Unlock()

	for _, p := range pending {
		h.emitEvent(p.event)
	}
}

func (h *HybridWatcher) emitEvent(event FileEvent) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.events <- event:
	default:
		count := h.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping event",
			slog.String("path", event.Path),
			slog.Uint64("total_dropped", count),
		)
	}
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.stopCh)

	h.settleMu.Lock()
	if h.settleTimer != nil {
		h.settleTimer.Stop()
	}
	h.settleMu.Unlock()

	if h.useFsnotify && h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.events)
	close(h.errors)
	return nil
}

// Events returns the channel of settled file events.
func (h *HybridWatcher) Events() <-chan FileEvent {
	return h.events
}

// Errors returns the channel of errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// WatcherType returns "fsnotify" or "polling", whichever backs this watcher.
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// RootPath returns the directory being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootPath
}
