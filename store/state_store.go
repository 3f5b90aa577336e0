package store

import (
	"sync"
	"time"
)

type stateEntry struct {
	userID    string
	expiresAt time.Time
}

// StateStore maps short-lived OAuth state strings to the user that started
// the authorization. Entries are single-use.
type StateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	ttl     time.Duration
}

func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		entries: make(map[string]stateEntry),
		ttl:     ttl,
	}
}

func (s *StateStore) Put(state, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[state] = stateEntry{
		userID:    userID,
		expiresAt: time.Now().Add(s.ttl),
	}
}

// Consume returns the user for a state and deletes it. An expired or
// unknown state returns false.
func (s *StateStore) Consume(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return "", false
	}
	delete(s.entries, state)

	if time.Now().After(e.expiresAt) {
		return "", false
	}

	return e.userID, true
}
