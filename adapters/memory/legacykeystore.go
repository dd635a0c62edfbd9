package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/roadsafety/roadguard/ports"
)

// LegacyKeyStore is an in-memory implementation of ports.LegacyKeyStore.
type LegacyKeyStore struct {
	mu   sync.RWMutex
	keys map[string]ports.LegacyKey // by API key
}

// NewLegacyKeyStore creates a new in-memory legacy key store.
func NewLegacyKeyStore() *LegacyKeyStore {
	return &LegacyKeyStore{
		keys: make(map[string]ports.LegacyKey),
	}
}

// GetByAPIKey retrieves an active legacy key.
func (s *LegacyKeyStore) GetByAPIKey(ctx context.Context, apiKey string) (ports.LegacyKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keys[apiKey]
	if !ok || !k.Active {
		return ports.LegacyKey{}, ErrNotFound
	}
	return k, nil
}

// Create stores a new legacy key.
func (s *LegacyKeyStore) Create(ctx context.Context, k ports.LegacyKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[k.APIKey]; exists {
		return ErrDuplicate
	}
	s.keys[k.APIKey] = k
	return nil
}

// Deactivate disables a legacy key.
func (s *LegacyKeyStore) Deactivate(ctx context.Context, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[apiKey]
	if !ok {
		return ErrNotFound
	}
	k.Active = false
	s.keys[apiKey] = k
	return nil
}

// List returns all legacy keys sorted by creation time.
func (s *LegacyKeyStore) List(ctx context.Context) ([]ports.LegacyKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]ports.LegacyKey, 0, len(s.keys))
	for _, k := range s.keys {
		all = append(all, k)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

// Clear removes all keys (for testing).
func (s *LegacyKeyStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]ports.LegacyKey)
}

// Ensure interface compliance.
var _ ports.LegacyKeyStore = (*LegacyKeyStore)(nil)
