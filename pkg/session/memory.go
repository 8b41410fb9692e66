package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sess    Session
	updated time.Time
}

// MemoryStore is a volatile Store keeping sessions in a process-local map.
// Safe for concurrent use; best suited for tests and the dev console.
// Sessions are cloned on the way in and out so callers never alias the
// store's internal state.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get returns a clone of the stored session, or a fresh empty one.
func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[id]; ok {
		return e.sess.Clone(), nil
	}
	return Session{}, nil
}

// Set stores a clone of sess under id.
func (s *MemoryStore) Set(ctx context.Context, id string, sess Session) error {
	if id == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{sess: sess.Clone(), updated: time.Now()}
	return nil
}

// Sweep drops sessions not written since the cutoff.
func (s *MemoryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.updated.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many sessions are held. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }
