// Package chunkstore owns the chunks/ directory on disk: a single file per
// live chunk, indexed in memory by ID, with id allocation, filename
// derivation, and whole-file read/write/delete operations.
package chunkstore
