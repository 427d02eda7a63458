package embedtext

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedderIsDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	a, err := e.Embed(context.Background(), "the quick brown fox")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "the quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashEmbedderProducesUnitVectors(t *testing.T) {
	e := NewHashEmbedder(64)
	v, err := e.Embed(context.Background(), "some representative text about goals")
	require.NoError(t, err)

	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}

func TestHashEmbedderEmptyTextIsZeroVector(t *testing.T) {
	e := NewHashEmbedder(32)
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, val := range v {
		assert.Equal(t, float32(0), val)
	}
}

func TestHashEmbedderDistinguishesDifferentText(t *testing.T) {
	e := NewHashEmbedder(64)
	a, err := e.Embed(context.Background(), "goals for the quarter")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "a completely unrelated emotional note")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCachedEmbedderReturnsSameVectorAsInner(t *testing.T) {
	inner := NewHashEmbedder(32)
	cached := NewCachedEmbedder(inner, 10)

	want, err := inner.Embed(context.Background(), "repeated query text")
	require.NoError(t, err)

	got, err := cached.Embed(context.Background(), "repeated query text")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	gotAgain, err := cached.Embed(context.Background(), "repeated query text")
	require.NoError(t, err)
	assert.Equal(t, want, gotAgain)
}

func TestCachedEmbedderPassesThroughMetadata(t *testing.T) {
	inner := NewHashEmbedder(128)
	cached := NewCachedEmbedder(inner, 10)
	assert.Equal(t, inner.Dimensions(), cached.Dimensions())
	assert.Equal(t, inner.ModelName(), cached.ModelName())
}
