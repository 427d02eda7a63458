package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHybridWatcherEmitsAddForNewTopLevelFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.SettleWindow = 20 * time.Millisecond
	opts.PollInterval = 20 * time.Millisecond

	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Start(ctx, dir) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc123-s.md"), []byte("content"), 0o644))

	select {
	case ev := <-w.Events():
		assert.Contains(t, ev.Path, "abc123-s.md")
		assert.Equal(t, OpAdd, ev.Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for add event")
	}

	require.NoError(t, w.Stop())
}

func TestHybridWatcherCoalescesAddThenChangeToOneEvent(t *testing.T) {
	opts := DefaultOptions()
	opts.SettleWindow = 30 * time.Millisecond
	h, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	h.settle(FileEvent{Path: "/data/a.md", Operation: OpAdd})
	h.settle(FileEvent{Path: "/data/a.md", Operation: OpChange})

	select {
	case ev := <-h.Events():
		assert.Equal(t, OpChange, ev.Operation)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for settled event")
	}

	require.NoError(t, h.Stop())
}

func TestHybridWatcherDropsAddImmediatelyUndoneByUnlink(t *testing.T) {
	opts := DefaultOptions()
	opts.SettleWindow = 30 * time.Millisecond
	h, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	h.settle(FileEvent{Path: "/data/a.md", Operation: OpAdd})
	h.settle(FileEvent{Path: "/data/a.md", Operation: OpUnlink})

	select {
	case ev := <-h.Events():
		t.Fatalf("expected no event, got %v", ev)
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, h.Stop())
}

func TestHybridWatcherChangeThenUnlinkStillEmitsUnlink(t *testing.T) {
	opts := DefaultOptions()
	opts.SettleWindow = 30 * time.Millisecond
	h, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	h.settle(FileEvent{Path: "/data/a.md", Operation: OpChange})
	h.settle(FileEvent{Path: "/data/a.md", Operation: OpUnlink})

	select {
	case ev := <-h.Events():
		assert.Equal(t, OpUnlink, ev.Operation)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for settled event")
	}

	require.NoError(t, h.Stop())
}

func TestHybridWatcherIgnoresDotfiles(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.SettleWindow = 20 * time.Millisecond
	opts.PollInterval = 20 * time.Millisecond

	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Start(ctx, dir) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))

	select {
	case ev := <-w.Events():
		t.Fatalf("expected dotfile to be ignored, got event for %s", ev.Path)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, w.Stop())
}
