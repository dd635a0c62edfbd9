package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roadsafety/roadguard/ports"
)

// ErrNotFound is returned when an entity is not found.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint is violated.
var ErrDuplicate = errors.New("already exists")

// AccountStore is an in-memory implementation of ports.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]ports.Account  // by ID
	byEmail  map[string]int64         // email -> ID
	byAPIKey map[string]int64         // api key -> ID
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		nextID:   1,
		accounts: make(map[int64]ports.Account),
		byEmail:  make(map[string]int64),
		byAPIKey: make(map[string]int64),
	}
}

// GetByAPIKey retrieves an active account by its API key.
func (s *AccountStore) GetByAPIKey(ctx context.Context, apiKey string) (ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byAPIKey[apiKey]
	if !ok {
		return ports.Account{}, ErrNotFound
	}
	a := s.accounts[id]
	if !a.IsActive {
		return ports.Account{}, ErrNotFound
	}
	return a, nil
}

// GetByEmail retrieves an account by email, active or not.
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return ports.Account{}, ErrNotFound
	}
	return s.accounts[id], nil
}

// GetByID retrieves an active account by ID.
func (s *AccountStore) GetByID(ctx context.Context, id int64) (ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok || !a.IsActive {
		return ports.Account{}, ErrNotFound
	}
	return a, nil
}

// Create stores a new account and returns it with the assigned ID.
func (s *AccountStore) Create(ctx context.Context, a ports.Account) (ports.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[a.Email]; exists {
		return ports.Account{}, ErrDuplicate
	}
	if _, exists := s.byAPIKey[a.APIKey]; exists {
		return ports.Account{}, ErrDuplicate
	}

	a.ID = s.nextID
	s.nextID++

	s.accounts[a.ID] = a
	s.byEmail[a.Email] = a.ID
	s.byAPIKey[a.APIKey] = a.ID
	return a, nil
}

// Update modifies name and password hash.
func (s *AccountStore) Update(ctx context.Context, a ports.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.accounts[a.ID]
	if !ok {
		return ErrNotFound
	}

	old.Name = a.Name
	old.PasswordHash = a.PasswordHash
	s.accounts[a.ID] = old
	return nil
}

// UpdateAPIKey replaces the account's API key.
func (s *AccountStore) UpdateAPIKey(ctx context.Context, id int64, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}

	delete(s.byAPIKey, a.APIKey)
	a.APIKey = apiKey
	s.accounts[id] = a
	s.byAPIKey[apiKey] = id
	return nil
}

// UpdateLastLogin stamps a successful login.
func (s *AccountStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}

	a.LastLogin = &at
	s.accounts[id] = a
	return nil
}

// Count returns total account count.
func (s *AccountStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

// Clear removes all accounts (for testing).
func (s *AccountStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = 1
	s.accounts = make(map[int64]ports.Account)
	s.byEmail = make(map[string]int64)
	s.byAPIKey = make(map[string]int64)
}

// Ensure interface compliance.
var _ ports.AccountStore = (*AccountStore)(nil)
