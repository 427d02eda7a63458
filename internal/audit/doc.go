// Package audit maintains an append-only log of every operation the memory
// store performs. The log is advisory: a logging failure is reported to the
// caller but never rolls back state that storage has already committed.
package audit
