// Package embedtext provides the text-to-vector Embedder contract used by
// the semantic index, a deterministic hash-based default implementation,
// and an LRU-caching wrapper for repeated queries.
package embedtext
