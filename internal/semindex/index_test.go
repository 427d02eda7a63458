package semindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solace-labs/memoria/internal/embedtext"
	merrors "github.com/solace-labs/memoria/internal/errors"
)

func newTestIndex(t *testing.T, maxElements int) *Index {
	t.Helper()
	cfg := DefaultConfig(32)
	cfg.MaxElements = maxElements
	idx := New(embedtext.NewHashEmbedder(32), cfg)
	require.NoError(t, idx.Init())
	return idx
}

func TestAddAndQueryFindsClosest(t *testing.T) {
	idx := newTestIndex(t, 100)
	ctx := context.Background()

	require.NoError(t, idx.AddDocument(ctx, "aaaaaa", "goals for the upcoming quarter"))
	require.NoError(t, idx.AddDocument(ctx, "bbbbbb", "an emotional note about a difficult day"))

	results, err := idx.Query(ctx, "quarterly goals and planning", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "aaaaaa", results[0].ID)
}

func TestQueryCapsKAtDocumentCount(t *testing.T) {
	idx := newTestIndex(t, 100)
	ctx := context.Background()
	require.NoError(t, idx.AddDocument(ctx, "aaaaaa", "one"))

	results, err := idx.Query(ctx, "one", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryOnEmptyIndexReturnsEmpty(t *testing.T) {
	idx := newTestIndex(t, 100)
	results, err := idx.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRemoveDocumentReturnsFalseWhenUnknown(t *testing.T) {
	idx := newTestIndex(t, 100)
	assert.False(t, idx.RemoveDocument("ffffff"))
}

func TestRemoveDocumentFreesSlotForReuse(t *testing.T) {
	idx := newTestIndex(t, 100)
	ctx := context.Background()

	require.NoError(t, idx.AddDocument(ctx, "aaaaaa", "first"))
	firstSlot := idx.idToSlot["aaaaaa"]

	assert.True(t, idx.RemoveDocument("aaaaaa"))
	require.NoError(t, idx.AddDocument(ctx, "bbbbbb", "second"))

	assert.Equal(t, firstSlot, idx.idToSlot["bbbbbb"], "freed slot should be reused smallest-first")
}

func TestUpdateDocumentChangesEmbeddingButKeepsID(t *testing.T) {
	idx := newTestIndex(t, 100)
	ctx := context.Background()

	require.NoError(t, idx.AddDocument(ctx, "aaaaaa", "original content"))
	require.NoError(t, idx.UpdateDocument(ctx, "aaaaaa", "entirely different content"))

	assert.True(t, idx.HasDocument("aaaaaa"))
	assert.Equal(t, 1, idx.GetDocumentCount())
}

func TestAddDocumentFailsWithCapacityExceeded(t *testing.T) {
	idx := newTestIndex(t, 1)
	ctx := context.Background()

	require.NoError(t, idx.AddDocument(ctx, "aaaaaa", "first"))

	err := idx.AddDocument(ctx, "bbbbbb", "second")
	require.Error(t, err)
	assert.Equal(t, merrors.ErrCodeCapacityExceeded, merrors.GetCode(err))
}

func TestGetAllIdsSorted(t *testing.T) {
	idx := newTestIndex(t, 100)
	ctx := context.Background()
	require.NoError(t, idx.AddDocument(ctx, "bbbbbb", "b"))
	require.NoError(t, idx.AddDocument(ctx, "aaaaaa", "a"))

	assert.Equal(t, []string{"aaaaaa", "bbbbbb"}, idx.GetAllIds())
}

func TestResetClearsState(t *testing.T) {
	idx := newTestIndex(t, 100)
	ctx := context.Background()
	require.NoError(t, idx.AddDocument(ctx, "aaaaaa", "a"))

	idx.Reset()
	assert.Equal(t, 0, idx.GetDocumentCount())
	assert.False(t, idx.HasDocument("aaaaaa"))
}
