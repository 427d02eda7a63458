// Package memstore is memoria's orchestrator: the single mutation gateway
// over chunk storage, the semantic index, and the audit log. Every operation
// that reads or mutates storage or the index serializes through one mutex
// (audit log reads use only the log's own lock), in storage -> index -> audit
// order, so a caller observing a storeChunk return is guaranteed a
// subsequent query on the same instance sees the new chunk.
package memstore
