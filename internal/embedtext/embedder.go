package embedtext

import (
	"context"
	"math"
)

// Embedder maps text to a fixed-dimension, unit-L2-normalized vector.
// Embed is deterministic: the same text always yields the same vector for
// a given Embedder instance.
type Embedder interface {
	// Embed returns the embedding for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the fixed output dimension D.
	Dimensions() int

	// ModelName identifies the embedding scheme, used to key caches that
	// might otherwise mix vectors from different models.
	ModelName() string
}

// normalize scales v to unit L2 norm. A zero vector is returned unchanged.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / magnitude)
	}
	return out
}
