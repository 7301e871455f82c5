package character

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when no document exists for a character id.
var ErrNotFound = errors.New("character not found")

// Store exposes character retrieval for HTTP handlers.
type Store interface {
	List() ([]Summary, error)
	FindProfile(id string) (Profile, error)
}

// Entry pairs a character id with its parsed profile.
type Entry struct {
	ID      string
	Profile Profile
}

// MemoryStore implements Store over an in-memory snapshot.
type MemoryStore struct {
	mu        sync.RWMutex
	profiles  map[string]Profile
	summaries []Summary
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied entries.
func NewMemoryStore(entries []Entry) *MemoryStore {
	s := &MemoryStore{}
	s.Replace(entries)
	return s
}

// Replace swaps the whole snapshot, keeping the order of entries.
func (s *MemoryStore) Replace(entries []Entry) {
	profiles := make(map[string]Profile, len(entries))
	summaries := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if _, dup := profiles[e.ID]; dup {
			continue
		}
		profiles[e.ID] = e.Profile
		summaries = append(summaries, Summarize(e.ID, e.Profile))
	}

	s.mu.Lock()
	s.profiles = profiles
	s.summaries = summaries
	s.mu.Unlock()
}

// List returns the character summaries in load order.
func (s *MemoryStore) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, len(s.summaries))
	copy(out, s.summaries)
	return out, nil
}

// FindProfile looks up a profile by character id.
func (s *MemoryStore) FindProfile(id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}
