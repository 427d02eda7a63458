package memstore

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	merrors "github.com/solace-labs/memoria/internal/errors"
)

// processLock enforces one live orchestrator per dataDir, even across
// separate OS processes, via an advisory file lock.
type processLock struct {
	fl *flock.Flock
}

func newProcessLock(dataDir string) *processLock {
	return &processLock{fl: flock.New(filepath.Join(dataDir, ".memoria.lock"))}
}

// TryLock acquires the lock without blocking. Returns false if another
// process already holds it.
func (l *processLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o755); err != nil {
		return false, merrors.IOError("failed to create data directory", err)
	}
	ok, err := l.fl.TryLock()
	if err != nil {
		return false, merrors.IOError("failed to acquire data directory lock", err)
	}
	return ok, nil
}

// Unlock releases the lock.
func (l *processLock) Unlock() error {
	return l.fl.Unlock()
}
