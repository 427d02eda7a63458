package chunkstore

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/solace-labs/memoria/internal/chunkfile"
	merrors "github.com/solace-labs/memoria/internal/errors"
)

const chunkFileExt = ".md"

var idPrefixPattern = regexp.MustCompile(`^[a-f0-9]{6}-`)

// Store owns the chunks/ directory: a single file per live chunk, indexed
// in memory by id -> filename.
type Store struct {
	dir string

	mu       sync.RWMutex
	filename map[string]string // id -> filename
}

// New returns a Store rooted at dir. Call Initialize before use.
func New(dir string) *Store {
	return &Store{
		dir:      dir,
		filename: make(map[string]string),
	}
}

// Initialize creates the chunk directory if missing and builds the
// in-memory id -> filename index from its current contents. Idempotent.
func (s *Store) Initialize() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return merrors.IOError("failed to create chunk directory "+s.dir, err)
	}
	return s.ReloadIndex()
}

// ReloadIndex rescans the chunk directory and rebuilds the id -> filename
// mapping from scratch.
func (s *Store) ReloadIndex() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return merrors.IOError("failed to read chunk directory "+s.dir, err)
	}

	index := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != chunkFileExt {
			continue
		}
		if !idPrefixPattern.MatchString(name) {
			continue
		}
		id := name[:6]
		index[id] = name
	}

	s.mu.Lock()
	s.filename = index
	s.mu.Unlock()
	return nil
}

// Exists reports whether a chunk with the given id is known to the index.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.filename[id]
	return ok
}

// GetAllIds returns every id currently indexed, in sorted order.
func (s *Store) GetAllIds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.filename))
	for id := range s.filename {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

const maxIDAttempts = 100

// GenerateUniqueID draws random 6-hex-character ids until one that isn't
// already present is found, giving up after 100 attempts.
func (s *Store) GenerateUniqueID() (string, error) {
	buf := make([]byte, 3)
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", merrors.InternalError("failed to read random bytes", err)
		}
		id := hex.EncodeToString(buf)
		if !s.Exists(id) {
			return id, nil
		}
	}
	return "", merrors.IDExhausted()
}

// Read returns the chunk with the given id, or nil if unknown.
func (s *Store) Read(id string) (*chunkfile.Chunk, error) {
	s.mu.RLock()
	name, ok := s.filename[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, merrors.IOError("failed to read chunk file "+path, err)
	}

	return chunkfile.Parse(data, name)
}

// ReadMany returns the chunks that resolve among ids, in input order,
// silently dropping ids that don't resolve to a live chunk.
func (s *Store) ReadMany(ids []string) ([]*chunkfile.Chunk, error) {
	out := make([]*chunkfile.Chunk, 0, len(ids))
	for _, id := range ids {
		c, err := s.Read(id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// Write computes the target filename from the chunk's id and current
// summary, removing the previous file for that id if the filename changed,
// then overwrites the file in full.
func (s *Store) Write(c *chunkfile.Chunk) error {
	newName := c.ID + "-" + chunkfile.Slugify(c.Summary) + chunkFileExt

	s.mu.Lock()
	oldName, hadOld := s.filename[c.ID]
	s.mu.Unlock()

	if hadOld && oldName != newName {
		oldPath := filepath.Join(s.dir, oldName)
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			return merrors.IOError("failed to remove stale chunk file "+oldPath, err)
		}
	}

	data, err := chunkfile.Serialize(c)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, newName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return merrors.IOError("failed to write chunk file "+path, err)
	}

	s.mu.Lock()
	s.filename[c.ID] = newName
	s.mu.Unlock()
	return nil
}

// Delete removes the chunk file for id and drops it from the index.
// Returns false if id was unknown.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	name, ok := s.filename[id]
	if ok {
		delete(s.filename, id)
	}
	s.mu.Unlock()

	if !ok {
		return false, nil
	}

	path := filepath.Join(s.dir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, merrors.IOError("failed to remove chunk file "+path, err)
	}
	return true, nil
}
