// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/roadsafety/roadguard/domain/identity"
	"github.com/roadsafety/roadguard/domain/ratelimit"
	"github.com/roadsafety/roadguard/domain/usage"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// Account represents a registered user account.
type Account struct {
	ID           int64
	Email        string
	PasswordHash []byte
	Name         string
	APIKey       string
	Tier         identity.Tier
	IsActive     bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// AccountStore persists user accounts (the primary key source).
type AccountStore interface {
	// GetByAPIKey retrieves an active account by its API key.
	GetByAPIKey(ctx context.Context, apiKey string) (Account, error)

	// GetByEmail retrieves an account by email, active or not.
	GetByEmail(ctx context.Context, email string) (Account, error)

	// GetByID retrieves an active account by ID.
	GetByID(ctx context.Context, id int64) (Account, error)

	// Create stores a new account and returns it with the assigned ID.
	Create(ctx context.Context, a Account) (Account, error)

	// Update modifies name and password hash.
	Update(ctx context.Context, a Account) error

	// UpdateAPIKey replaces the account's API key.
	UpdateAPIKey(ctx context.Context, id int64, apiKey string) error

	// UpdateLastLogin stamps a successful login.
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error

	// Count returns total account count.
	Count(ctx context.Context) (int, error)
}

// LegacyKey is a standalone key from the pre-accounts key table.
type LegacyKey struct {
	APIKey    string
	Tier      identity.Tier
	Name      string
	Active    bool
	CreatedAt time.Time
}

// LegacyKeyStore persists standalone API keys (the secondary key source).
type LegacyKeyStore interface {
	// GetByAPIKey retrieves an active legacy key.
	GetByAPIKey(ctx context.Context, apiKey string) (LegacyKey, error)

	// Create stores a new legacy key.
	Create(ctx context.Context, k LegacyKey) error

	// Deactivate disables a legacy key.
	Deactivate(ctx context.Context, apiKey string) error

	// List returns all legacy keys.
	List(ctx context.Context) ([]LegacyKey, error)
}

// UsageStore persists usage records and answers aggregate queries.
type UsageStore interface {
	// RecordBatch stores multiple usage records.
	RecordBatch(ctx context.Context, records []usage.Record) error

	// Stats returns aggregate usage over the trailing period, optionally
	// filtered to one API key (empty = all traffic).
	Stats(ctx context.Context, apiKey string, hours int, now time.Time) (usage.Stats, error)

	// AccountStats returns the per-account usage report for an API key.
	AccountStats(ctx context.Context, apiKey string, now time.Time) (usage.AccountStats, error)

	// Count returns total stored records.
	Count(ctx context.Context) (int64, error)
}

// Accident is one road accident record from the public dataset.
type Accident struct {
	ID         int64
	Severity   string
	Year       int
	Date       time.Time
	Latitude   float64
	Longitude  float64
	Vehicles   int
	Casualties int
	RoadType   string
	Weather    string
}

// AccidentFilter narrows a list query. Zero values mean "no filter".
type AccidentFilter struct {
	Severity string
	Year     int
	Limit    int
}

// SeverityCount aggregates accidents by severity.
type SeverityCount struct {
	Severity string
	Count    int64
}

// YearCount aggregates accidents by year.
type YearCount struct {
	Year  int
	Count int64
}

// AccidentStats is the aggregate view of the dataset.
type AccidentStats struct {
	Total      int64
	BySeverity []SeverityCount
	ByYear     []YearCount
}

// AccidentStore reads the accident dataset behind the protected API.
type AccidentStore interface {
	// List returns accidents matching the filter.
	List(ctx context.Context, f AccidentFilter) ([]Accident, error)

	// Stats returns dataset-wide aggregates.
	Stats(ctx context.Context) (AccidentStats, error)

	// Count returns total dataset size.
	Count(ctx context.Context) (int64, error)
}

// QuotaStore tracks fixed-window admission counters.
type QuotaStore interface {
	// GetAndCheck atomically loads the counter for quotaKey, runs the
	// admission check, and persists the updated state.
	GetAndCheck(ctx context.Context, quotaKey string, cfg ratelimit.Config, now time.Time) (ratelimit.CheckResult, error)

	// Peek returns the current counter state without consuming a request.
	Peek(ctx context.Context, quotaKey string) (ratelimit.WindowState, error)
}

// KeyCache caches resolved identities between database lookups.
type KeyCache interface {
	// Get returns a cached identity. Entries older than the cache TTL are
	// treated as absent.
	Get(apiKey string, now time.Time) (identity.Identity, bool)

	// Set stores a resolved identity.
	Set(apiKey string, id identity.Identity, now time.Time)

	// Delete evicts one key (after rotation or revocation).
	Delete(apiKey string)
}

// -----------------------------------------------------------------------------
// Event Ports
// -----------------------------------------------------------------------------

// UsageRecorder accepts usage records for async processing.
type UsageRecorder interface {
	// Record queues a usage record. This must be non-blocking.
	Record(r usage.Record)

	// Flush forces immediate processing of queued records.
	Flush(ctx context.Context) error

	// Close stops the recorder and flushes remaining records.
	Close() error
}
