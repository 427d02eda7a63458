package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solace-labs/memoria/internal/audit"
	"github.com/solace-labs/memoria/internal/chunkfile"
	"github.com/solace-labs/memoria/internal/chunkstore"
	merrors "github.com/solace-labs/memoria/internal/errors"
	"github.com/solace-labs/memoria/internal/semindex"
	"github.com/solace-labs/memoria/internal/watcher"
)

var requiredMetadataFields = []string{"summary", "type", "epistemic", "surface_tags"}

// Metadata is the overlay passed to storeChunk/updateChunk: everything a
// caller may set except id and content.
type Metadata struct {
	Summary      string
	Type         chunkfile.Type
	Epistemic    chunkfile.Epistemic
	Status       chunkfile.Status
	SurfaceTags  []string
	Related      []chunkfile.RelatedRef
	Expires      *time.Time
	ContextNotes string

	hasSummary     bool
	hasType        bool
	hasEpistemic   bool
	hasStatus      bool
	hasSurfaceTags bool
	hasRelated     bool
	hasExpires     bool
	hasContextNote bool
}

// present fields are tracked so updateChunk can distinguish "not provided"
// from "provided as zero value". Constructors below set these flags.

// NewMetadata starts an empty overlay; use the With* setters to populate it.
func NewMetadata() *Metadata { return &Metadata{} }

func (m *Metadata) WithSummary(v string) *Metadata {
	m.Summary, m.hasSummary = v, true
	return m
}
func (m *Metadata) WithType(v chunkfile.Type) *Metadata {
	m.Type, m.hasType = v, true
	return m
}
func (m *Metadata) WithEpistemic(v chunkfile.Epistemic) *Metadata {
	m.Epistemic, m.hasEpistemic = v, true
	return m
}
func (m *Metadata) WithStatus(v chunkfile.Status) *Metadata {
	m.Status, m.hasStatus = v, true
	return m
}
func (m *Metadata) WithSurfaceTags(v []string) *Metadata {
	m.SurfaceTags, m.hasSurfaceTags = v, true
	return m
}
func (m *Metadata) WithRelated(v []chunkfile.RelatedRef) *Metadata {
	m.Related, m.hasRelated = v, true
	return m
}
func (m *Metadata) WithExpires(v *time.Time) *Metadata {
	m.Expires, m.hasExpires = v, true
	return m
}
func (m *Metadata) WithContextNotes(v string) *Metadata {
	m.ContextNotes, m.hasContextNote = v, true
	return m
}

func (m *Metadata) missingRequiredField() string {
	if !m.hasSummary || m.Summary == "" {
		return "summary"
	}
	if !m.hasType || m.Type == "" {
		return "type"
	}
	if !m.hasEpistemic || m.Epistemic == "" {
		return "epistemic"
	}
	if !m.hasSurfaceTags {
		return "surface_tags"
	}
	return ""
}

func (m *Metadata) applyTo(c *chunkfile.Chunk) {
	if m.hasSummary {
		c.Summary = m.Summary
	}
	if m.hasType {
		c.Type = m.Type
	}
	if m.hasEpistemic {
		c.Epistemic = m.Epistemic
	}
	if m.hasStatus {
		c.Status = m.Status
	}
	if m.hasSurfaceTags {
		c.SurfaceTags = m.SurfaceTags
	}
	if m.hasRelated {
		c.Related = m.Related
	}
	if m.hasExpires {
		c.Expires = m.Expires
	}
	if m.hasContextNote {
		c.ContextNotes = m.ContextNotes
	}
}

// ChunkMeta is a chunk with its content body stripped, as returned by query.
type ChunkMeta struct {
	chunkfile.Chunk
}

// Stats summarizes the orchestrator's current state.
type Stats struct {
	ChunkCount   int
	IndexedCount int
}

// Store is the single mutation gateway over chunk storage, the semantic
// index, and the audit log.
type Store struct {
	mu sync.Mutex

	dataDir      string
	storage      *chunkstore.Store
	index        *semindex.Index
	auditLg      *audit.Log
	watcher      watcher.Watcher
	stopWatching context.CancelFunc
	lock         *processLock

	initialized bool
}

// New returns a Store rooted at dataDir. Call Init before use.
func New(dataDir string, index *semindex.Index) *Store {
	return &Store{
		dataDir: dataDir,
		storage: chunkstore.New(filepath.Join(dataDir, "chunks")),
		index:   index,
		auditLg: audit.New(filepath.Join(dataDir, "audit.log")),
	}
}

// Init initializes storage, the audit log, and the semantic index, rebuilds
// the index from every chunk on disk, and starts the file watcher.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := newProcessLock(s.dataDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		return merrors.InternalError("another memoria process already holds the lock on "+s.dataDir, nil)
	}
	s.lock = lock

	releaseLockOnFailure := true
	defer func() {
		if releaseLockOnFailure {
			_ = s.lock.Unlock()
			s.lock = nil
		}
	}()

	if err := s.storage.Initialize(); err != nil {
		return err
	}
	if err := s.auditLg.Initialize(); err != nil {
		return err
	}
	if err := s.index.Init(); err != nil {
		return err
	}

	ids := s.storage.GetAllIds()
	loaded := 0
	for _, id := range ids {
		c, err := s.storage.Read(id)
		if err != nil {
			slog.Warn("skipping unreadable chunk during rebuild", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		if c == nil {
			continue
		}
		if err := s.index.AddDocument(ctx, id, embeddingText(c)); err != nil {
			slog.Warn("failed to index chunk during rebuild", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		loaded++
	}

	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
	if err != nil {
		return merrors.InternalError("failed to construct file watcher", err)
	}
	s.watcher = w

	releaseLockOnFailure = false

	watchCtx, cancel := context.WithCancel(context.Background())
	s.stopWatching = cancel
	go func() {
		if err := w.Start(watchCtx, filepath.Join(s.dataDir, "chunks")); err != nil && err != context.Canceled {
			slog.Warn("file watcher stopped", slog.String("error", err.Error()))
		}
	}()
	go s.reconcileLoop(watchCtx)

	runID := uuid.NewString()
	_ = s.auditLg.Append(audit.ActionInit, "", fmt.Sprintf("run=%s loaded=%d", runID, loaded))

	s.initialized = true
	return nil
}

// embeddingText is the single formula used to derive embedding input from a
// chunk, applied identically on store, update, and external reload.
func embeddingText(c *chunkfile.Chunk) string {
	return c.Summary + "\n\n" + strings.Join(c.SurfaceTags, ", ") + "\n\n" + c.Content
}

// StoreChunk validates required metadata, allocates an id, writes the
// chunk, indexes it, and logs STORE. Returns the new id.
func (s *Store) StoreChunk(ctx context.Context, content string, metadata *Metadata) (string, error) {
	if field := metadata.missingRequiredField(); field != "" {
		return "", merrors.MissingRequiredField(field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.storage.GenerateUniqueID()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	c := &chunkfile.Chunk{
		ID:       id,
		Content:  content,
		Status:   chunkfile.StatusActive,
		Related:  []chunkfile.RelatedRef{},
		Created:  now,
		Updated:  now,
		Accessed: now,
	}
	metadata.applyTo(c)
	if c.Status == "" {
		c.Status = chunkfile.StatusActive
	}

	if err := s.storage.Write(c); err != nil {
		return "", err
	}
	if err := s.index.AddDocument(ctx, id, embeddingText(c)); err != nil {
		return "", err
	}
	_ = s.auditLg.Append(audit.ActionStore, id, fmt.Sprintf("type=%s epistemic=%s", c.Type, c.Epistemic))

	return id, nil
}

// UpdateChunk reads the current chunk, merges metadata over it, optionally
// replaces content, rewrites, refreshes the index entry, and logs UPDATE.
func (s *Store) UpdateChunk(ctx context.Context, id string, metadata *Metadata, content *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.storage.Read(id)
	if err != nil {
		return err
	}
	if c == nil {
		return merrors.ChunkNotFound(id)
	}

	if metadata != nil {
		metadata.applyTo(c)
	}
	c.ID = id
	c.Updated = time.Now().UTC()

	contentChanged := content != nil
	if contentChanged {
		c.Content = *content
	}

	if err := s.storage.Write(c); err != nil {
		return err
	}
	if err := s.index.UpdateDocument(ctx, id, embeddingText(c)); err != nil {
		return err
	}

	detail := fmt.Sprintf("type=%s epistemic=%s status=%s", c.Type, c.Epistemic, c.Status)
	if contentChanged {
		detail += " content=" + excerpt(c.Content, 100)
	}
	_ = s.auditLg.Append(audit.ActionUpdate, id, detail)

	return nil
}

func excerpt(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

// GetChunks is a read-only passthrough to storage.
func (s *Store) GetChunks(ids []string) ([]*chunkfile.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.ReadMany(ids)
}

// Query runs a semantic query, writes back retrieval bookkeeping on every
// hit, logs QUERY then RETRIEVE, and returns the matched chunks with
// content stripped.
func (s *Store) Query(ctx context.Context, searchText string, limit int) ([]ChunkMeta, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.index.Query(ctx, searchText, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}

	chunks, err := s.storage.ReadMany(ids)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]ChunkMeta, 0, len(chunks))
	for _, c := range chunks {
		c.RetrievedCount++
		c.Accessed = now
		if err := s.storage.Write(c); err != nil {
			return nil, err
		}
		stripped := *c
		stripped.Content = ""
		out = append(out, ChunkMeta{Chunk: stripped})
	}

	_ = s.auditLg.Append(audit.ActionQuery, "", "query="+excerpt(searchText, 100)+" ids="+strings.Join(ids, ","))
	_ = s.auditLg.Append(audit.ActionRetrieve, "", "ids="+strings.Join(ids, ","))

	return out, nil
}

// MarkRelevant increments relevant_count and sets last_relevant_date for
// each id that resolves. Unknown ids are silently skipped.
func (s *Store) MarkRelevant(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var touched []string
	for _, id := range ids {
		c, err := s.storage.Read(id)
		if err != nil {
			return err
		}
		if c == nil {
			continue
		}
		c.RelevantCount++
		c.LastRelevantDate = &now
		if err := s.storage.Write(c); err != nil {
			return err
		}
		touched = append(touched, id)
	}

	if len(touched) > 0 {
		_ = s.auditLg.Append(audit.ActionRelevant, "", "ids="+strings.Join(touched, ","))
	}
	return nil
}

// MarkObsolete archives a chunk and appends a reason note to its context.
func (s *Store) MarkObsolete(id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.storage.Read(id)
	if err != nil {
		return err
	}
	if c == nil {
		return merrors.ChunkNotFound(id)
	}

	c.Status = chunkfile.StatusArchived
	c.Updated = time.Now().UTC()
	note := "[Obsoleted: " + reason + "]"
	if c.ContextNotes != "" {
		c.ContextNotes += "\n" + note
	} else {
		c.ContextNotes = note
	}

	if err := s.storage.Write(c); err != nil {
		return err
	}
	_ = s.auditLg.Append(audit.ActionObsolete, id, reason)
	return nil
}

// GetAuditLog is a passthrough to the audit log.
func (s *Store) GetAuditLog(since *time.Time) (string, error) {
	return s.auditLg.ReadSince(since)
}

// TailAuditLog returns the last n lines of the audit log, oldest first.
func (s *Store) TailAuditLog(n int) ([]string, error) {
	return s.auditLg.Tail(n)
}

// GetStats reports current chunk and index counts.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		ChunkCount:   len(s.storage.GetAllIds()),
		IndexedCount: s.index.GetDocumentCount(),
	}
}

// Shutdown stops the watcher, releases the process lock, and marks the
// store uninitialized.
func (s *Store) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}
	if s.stopWatching != nil {
		s.stopWatching()
	}
	if s.watcher != nil {
		_ = s.watcher.Stop()
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
		s.lock = nil
	}
	s.initialized = false
	return nil
}
