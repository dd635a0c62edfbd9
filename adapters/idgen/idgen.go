// Package idgen provides ID generation implementations.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/roadsafety/roadguard/ports"
)

// UUID generates UUIDs.
type UUID struct{}

// New generates a new UUID v4.
func (UUID) New() string {
	return uuid.New().String()
}

// Ensure interface compliance.
var _ ports.IDGenerator = UUID{}

// APIKeyPrefix marks keys issued to registered accounts.
const APIKeyPrefix = "rsk_"

// NewAPIKey generates a fresh account API key: prefix + 48 hex chars.
func NewAPIKey() string {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return APIKeyPrefix + hex.EncodeToString(raw)
}

// APIKeys generates account API keys via an IDGenerator port.
type APIKeys struct{}

// New generates a fresh account API key.
func (APIKeys) New() string {
	return NewAPIKey()
}

// Ensure interface compliance.
var _ ports.IDGenerator = APIKeys{}

// Sequential generates sequential IDs (for testing).
type Sequential struct {
	prefix  string
	counter uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	n := atomic.AddUint64(&s.counter, 1)
	return fmt.Sprintf("%s%d", s.prefix, n)
}

// Reset resets the counter (for testing).
func (s *Sequential) Reset() {
	atomic.StoreUint64(&s.counter, 0)
}

// Ensure interface compliance.
var _ ports.IDGenerator = (*Sequential)(nil)
