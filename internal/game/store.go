package game

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Store holds hand state. Implementations must return ErrHandNotFound for
// unknown ids and must not share mutable state with callers.
//
// Put is a compare-and-set on State.Version: it succeeds only when the
// stored version equals s.Version (zero for a hand not yet stored), and then
// increments s.Version. A stale write fails with ErrStaleWrite and leaves the
// stored hand untouched, so engines in different processes sharing a store
// cannot overwrite each other's progress.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Put(ctx context.Context, s *State) error
	// ListActive returns the ids of hands that are not Resolved.
	ListActive(ctx context.Context) ([]string, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	hands map[string]*State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hands: make(map[string]*State)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.hands[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandNotFound, id)
	}
	return s.Clone(), nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current int64
	if held, ok := m.hands[s.Hand.ID]; ok {
		current = held.Version
	}
	if current != s.Version {
		return StaleWrite(s.Hand.ID, current, s.Version)
	}
	s.Version++
	m.hands[s.Hand.ID] = s.Clone()
	return nil
}

// StaleWrite builds the error a Store returns when a write was based on
// version want but the store holds version have.
func StaleWrite(id string, have, want int64) error {
	return fmt.Errorf("%w: hand %s is at version %d, write based on %d", ErrStaleWrite, id, have, want)
}

// ListActive implements Store.
func (m *MemoryStore) ListActive(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, s := range m.hands {
		if s.Hand.Street != Resolved {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Len returns the number of stored hands, resolved ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hands)
}
