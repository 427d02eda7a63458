package memstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/solace-labs/memoria/internal/audit"
	"github.com/solace-labs/memoria/internal/watcher"
)

var chunkIDFromBasename = regexp.MustCompile(`^[a-f0-9]{6}`)

// reconcileLoop drains watcher events and reconciles storage and the index
// against them until ctx is cancelled. Handler errors are logged and
// swallowed: the next event re-reconciles.
func (s *Store) reconcileLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events():
			if !ok {
				return
			}
			if err := s.reconcile(ctx, ev); err != nil {
				slog.Warn("watcher reconciliation failed",
					slog.String("path", ev.Path),
					slog.String("op", ev.Operation.String()),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (s *Store) reconcile(ctx context.Context, ev watcher.FileEvent) error {
	base := filepath.Base(ev.Path)
	match := chunkIDFromBasename.FindString(base)
	if match == "" {
		return nil
	}
	id := match

	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Operation {
	case watcher.OpAdd, watcher.OpChange:
		if err := s.storage.ReloadIndex(); err != nil {
			return err
		}
		c, err := s.storage.Read(id)
		if err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		if err := s.index.UpdateDocument(ctx, id, embeddingText(c)); err != nil {
			return err
		}
		_ = s.auditLg.Append(audit.ActionReload, id, "")

	case watcher.OpUnlink:
		if err := s.storage.ReloadIndex(); err != nil {
			return err
		}
		s.index.RemoveDocument(id)
	}

	return nil
}
