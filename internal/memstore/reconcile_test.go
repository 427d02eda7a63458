package memstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solace-labs/memoria/internal/embedtext"
	"github.com/solace-labs/memoria/internal/semindex"
)

// waitUntil polls cond every 20ms until it returns true or timeout elapses.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestReconcileRemovesIndexEntryOnExternalUnlink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.StoreChunk(ctx, "body about reconciliation and file watching", basicMetadata("reconcile summary"))
	require.NoError(t, err)
	require.True(t, s.index.HasDocument(id))

	chunks, err := s.GetChunks([]string{id})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	s.mu.Lock()
	path := filepath.Join(s.dataDir, "chunks")
	s.mu.Unlock()

	entries, err := os.ReadDir(path)
	require.NoError(t, err)
	var target string
	for _, e := range entries {
		if len(e.Name()) >= 6 && e.Name()[:6] == id {
			target = filepath.Join(path, e.Name())
		}
	}
	require.NotEmpty(t, target)

	require.NoError(t, os.Remove(target))

	ok := waitUntil(t, 3*time.Second, func() bool {
		return !s.index.HasDocument(id)
	})
	require.True(t, ok, "external unlink should eventually be reconciled out of the index")
}

func TestReconcileReindexesOnExternalChange(t *testing.T) {
	dir := t.TempDir()
	embedder := embedtext.NewHashEmbedder(32)
	idx := semindex.New(embedder, semindex.DefaultConfig(32))
	s := New(dir, idx)
	require.NoError(t, s.Init(context.Background()))
	defer func() { _ = s.Shutdown() }()

	ctx := context.Background()
	id, err := s.StoreChunk(ctx, "original content about cats", basicMetadata("cats summary"))
	require.NoError(t, err)

	chunksDir := filepath.Join(dir, "chunks")
	entries, err := os.ReadDir(chunksDir)
	require.NoError(t, err)
	var target string
	for _, e := range entries {
		if len(e.Name()) >= 6 && e.Name()[:6] == id {
			target = filepath.Join(chunksDir, e.Name())
		}
	}
	require.NotEmpty(t, target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(target, data, 0o644))

	ok := waitUntil(t, 3*time.Second, func() bool {
		return s.index.HasDocument(id)
	})
	require.True(t, ok, "external rewrite should still be indexed after reconciliation")
}
