package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := New(path)
	require.NoError(t, l.Initialize())

	text, err := l.ReadSince(nil)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestAppendAndReadSinceFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := New(path)
	require.NoError(t, l.Initialize())

	require.NoError(t, l.Append(ActionStore, "abc123", ""))
	require.NoError(t, l.Append(ActionQuery, "", "k=3"))

	text, err := l.ReadSince(nil)
	require.NoError(t, err)
	assert.Contains(t, text, "STORE abc123")
	assert.Contains(t, text, "QUERY k=3")
}

func TestReadSinceFiltersByInstant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := New(path)
	require.NoError(t, l.Initialize())

	require.NoError(t, l.Append(ActionStore, "abc123", ""))
	cutoff := time.Now().UTC().Add(time.Millisecond)
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, l.Append(ActionUpdate, "abc123", ""))

	text, err := l.ReadSince(&cutoff)
	require.NoError(t, err)
	assert.NotContains(t, text, "STORE")
	assert.Contains(t, text, "UPDATE")
}

func TestGetEntriesParsesChunkIDAndDetails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := New(path)
	require.NoError(t, l.Initialize())

	require.NoError(t, l.Append(ActionRelevant, "abc123", "manual mark"))

	entries, err := l.GetEntries(nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionRelevant, entries[0].Action)
	assert.Equal(t, "abc123", entries[0].ChunkID)
	assert.Equal(t, "manual mark", entries[0].Details)
}

func TestGetEntriesWithoutChunkID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := New(path)
	require.NoError(t, l.Initialize())

	require.NoError(t, l.Append(ActionInit, "", "run=xyz"))

	entries, err := l.GetEntries(nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ChunkID)
	assert.Equal(t, "run=xyz", entries[0].Details)
}

func TestTailReturnsLastNLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := New(path)
	require.NoError(t, l.Initialize())

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(ActionStore, "abc123", ""))
	}

	lines, err := l.Tail(2)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestTailOnMissingFileReturnsEmpty(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "missing.log"))
	lines, err := l.Tail(10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestTailWithCountExceedingLinesReturnsAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := New(path)
	require.NoError(t, l.Initialize())
	require.NoError(t, l.Append(ActionStore, "abc123", ""))

	lines, err := l.Tail(100)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}
