package embedtext

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"
)

// DefaultDimensions is the output dimension NewHashEmbedder uses when given
// a non-positive dim.
const DefaultDimensions = 256

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// HashEmbedder produces deterministic embeddings from token and n-gram
// hashing, requiring no model download or network access. Semantic
// fidelity is coarse compared to a learned model, but it's exact,
// reproducible, and fast enough to run inline on every store/query.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a HashEmbedder with the given output dimension.
// A non-positive dim falls back to DefaultDimensions.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dim}
}

// Embed implements Embedder.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dimensions), nil
	}
	return normalize(e.generateVector(trimmed)), nil
}

// Dimensions implements Embedder.
func (e *HashEmbedder) Dimensions() int { return e.dimensions }

// ModelName implements Embedder.
func (e *HashEmbedder) ModelName() string { return "hash-ngram-v1" }

func (e *HashEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, e.dimensions)

	for _, token := range tokenize(text) {
		idx := hashToIndex(token, e.dimensions)
		vector[idx] += tokenWeight
	}

	normalized := normalizeForNgrams(text)
	for _, ngram := range extractNgrams(normalized, ngramSize) {
		idx := hashToIndex(ngram, e.dimensions)
		vector[idx] += ngramWeight
	}

	return vector
}

func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range splitCamelAndSnake(word) {
			if lower := strings.ToLower(t); lower != "" {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

func splitCamelAndSnake(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

func splitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

func normalizeForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return []string{}
	}
	ngrams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		ngrams = append(ngrams, text[i:i+n])
	}
	return ngrams
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}
