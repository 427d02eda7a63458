package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher watches a single, non-recursive directory by periodically
// listing it. Used as a fallback when fsnotify is unavailable.
type PollingWatcher struct {
	interval  time.Duration
	fileState map[string]fileSnapshot
	events    chan FileEvent
	errors    chan error
	stopCh    chan struct{}
	mu        sync.RWMutex
	stopped   bool
	rootPath  string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a polling watcher with the given interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval:  interval,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan FileEvent, 100),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start begins watching path by polling at the configured interval.
func (p *PollingWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	p.rootPath = absPath

	if err := p.scan(); err != nil {
		return fmt.Errorf("perform initial scan: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.detectChanges(); err != nil {
				select {
				case p.errors <- err:
				default:
				}
			}
		}
	}
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

func (p *PollingWatcher) listTopLevel() (map[string]fileSnapshot, error) {
	entries, err := os.ReadDir(p.rootPath)
	if err != nil {
		return nil, err
	}

	state := make(map[string]fileSnapshot, len(entries))
	for _, e := range entries {
		if e.IsDir() || isIgnoredName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(p.rootPath, e.Name())
		state[path] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
	}
	return state, nil
}

func (p *PollingWatcher) scan() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.listTopLevel()
	if err != nil {
		return err
	}
	p.fileState = state
	return nil
}

func (p *PollingWatcher) detectChanges() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.listTopLevel()
	if err != nil {
		return fmt.Errorf("list directory for changes: %w", err)
	}

	for path, snapshot := range current {
		if prev, exists := p.fileState[path]; !exists {
			p.emitEvent(FileEvent{Path: path, Operation: OpAdd, Timestamp: time.Now()})
		} else if prev.modTime != snapshot.modTime || prev.size != snapshot.size {
			p.emitEvent(FileEvent{Path: path, Operation: OpChange, Timestamp: time.Now()})
		}
	}

	for path := range p.fileState {
		if _, exists := current[path]; !exists {
			p.emitEvent(FileEvent{Path: path, Operation: OpUnlink, Timestamp: time.Now()})
		}
	}

	p.fileState = current
	return nil
}

// emitEvent sends an event to the events channel. Must be called with lock held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}

	select {
	case p.events <- event:
	default:
		slog.Warn("polling watcher buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()),
		)
	}
}
