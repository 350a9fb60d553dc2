// Package memory provides an in-memory db.Store.
//
// Nothing is persisted; the store exists for tests and for ephemeral
// engine runs where the memo and path registrations may be discarded
// with the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/marmos91/depot/pkg/db"
	"github.com/marmos91/depot/pkg/term"
)

// MemoryStore implements db.Store with mutex-guarded maps.
//
// Thread Safety:
// All operations are protected by a single read-write mutex, which is
// plenty for the engine's single-invocation access pattern.
type MemoryStore struct {
	mu         sync.RWMutex
	pathIDs    map[string]term.ID
	successors map[term.ID]term.ID
	idPaths    map[term.ID]map[string]struct{}
}

var _ db.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pathIDs:    make(map[string]term.ID),
		successors: make(map[term.ID]term.ID),
		idPaths:    make(map[term.ID]map[string]struct{}),
	}
}

// PathID returns the content id registered for a path, if any.
func (s *MemoryStore) PathID(ctx context.Context, path string) (term.ID, bool, error) {
	if err := ctx.Err(); err != nil {
		return term.ID{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.pathIDs[path]
	return id, ok, nil
}

// SetPathID registers a path as carrying the given content id.
func (s *MemoryStore) SetPathID(ctx context.Context, path string, id term.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop the reverse entry of a previous registration first, so the
	// reverse index never points at a path carrying a different id.
	if prev, ok := s.pathIDs[path]; ok && prev != id {
		delete(s.idPaths[prev], path)
	}

	s.pathIDs[path] = id
	if s.idPaths[id] == nil {
		s.idPaths[id] = make(map[string]struct{})
	}
	s.idPaths[id][path] = struct{}{}
	return nil
}

// DeletePathID removes a path registration.
func (s *MemoryStore) DeletePathID(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.pathIDs[path]; ok {
		delete(s.idPaths[id], path)
		delete(s.pathIDs, path)
	}
	return nil
}

// Successor returns the memoised normal-form id for a term id.
func (s *MemoryStore) Successor(ctx context.Context, id term.ID) (term.ID, bool, error) {
	if err := ctx.Err(); err != nil {
		return term.ID{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	succ, ok := s.successors[id]
	return succ, ok, nil
}

// SetSuccessor records a normalisation memo entry.
func (s *MemoryStore) SetSuccessor(ctx context.Context, from, to term.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.successors[from] = to
	return nil
}

// PathsForID returns every path registered as carrying the id.
func (s *MemoryStore) PathsForID(ctx context.Context, id term.ID) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.idPaths[id]))
	for path := range s.idPaths[id] {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Close releases nothing; the store is garbage collected.
func (s *MemoryStore) Close() error {
	return nil
}
