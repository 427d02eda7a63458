// Package chunkfile defines the Chunk record and its on-disk codec: a
// YAML metadata header followed by a blank line and a free-form body,
// mirroring the header/body split of memoria's predecessor markdown
// chunker but applied to whole memory chunks rather than document
// fragments.
package chunkfile
