// Package semindex is a string-ID-keyed approximate nearest neighbor index.
// It embeds text via embedtext.Embedder and stores the resulting vectors in
// a coder/hnsw graph, presenting chunk ids as its only public key space.
//
// Two integer spaces are kept deliberately separate:
//
//   - "slots" are the public capacity-tracked keys: reused from freed slots
//     smallest-first, checked against maxElements, and what CapacityExceeded
//     is computed from.
//   - "graph keys" are the coder/hnsw node keys: monotonically increasing
//     and never reused. The underlying graph has a known defect when a
//     node is deleted and its key immediately reassigned, so removed
//     documents are lazily orphaned in the graph (key forgotten, node left
//     in place) rather than having their graph key recycled.
package semindex
