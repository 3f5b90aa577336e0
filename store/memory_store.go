package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nilotpaul/go-fitsync/types"
)

// MemoryCredentialStore keeps linked accounts in a mutex-guarded map.
// Used in tests and when running without a database.
type MemoryCredentialStore struct {
	mu       sync.Mutex
	accounts map[string]types.FitbitAccount
	users    map[string]struct{}
}

var _ types.CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		accounts: make(map[string]types.FitbitAccount),
		users:    make(map[string]struct{}),
	}
}

func (s *MemoryCredentialStore) CreateUser(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := uuid.NewString()
	s.users[userID] = struct{}{}

	return userID, nil
}

func (s *MemoryCredentialStore) Save(ctx context.Context, acc *types.FitbitAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *acc
	cp.UpdatedAt = time.Now()
	s.accounts[acc.UserID] = cp

	return nil
}

func (s *MemoryCredentialStore) Load(ctx context.Context, userID string) (*types.FitbitAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}

	cp := acc
	return &cp, nil
}

func (s *MemoryCredentialStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, userID)

	return nil
}

func (s *MemoryCredentialStore) RecordSync(ctx context.Context, userID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return nil
	}

	acc.LastSyncedAt = &t
	acc.UpdatedAt = time.Now()
	s.accounts[userID] = acc

	return nil
}
