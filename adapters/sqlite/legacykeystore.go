package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/roadsafety/roadguard/ports"
)

// LegacyKeyStore implements ports.LegacyKeyStore using SQLite.
type LegacyKeyStore struct {
	db *DB
}

// NewLegacyKeyStore creates a new SQLite legacy key store.
func NewLegacyKeyStore(db *DB) *LegacyKeyStore {
	return &LegacyKeyStore{db: db}
}

// GetByAPIKey retrieves an active legacy key.
func (s *LegacyKeyStore) GetByAPIKey(ctx context.Context, apiKey string) (ports.LegacyKey, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT api_key, tier, name, active, created_at
		FROM api_keys
		WHERE api_key = ? AND active = 1
	`, apiKey)

	var k ports.LegacyKey
	var tier string
	err := row.Scan(&k.APIKey, &tier, &k.Name, &k.Active, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.LegacyKey{}, ErrNotFound
	}
	if err != nil {
		return ports.LegacyKey{}, err
	}
	k.Tier = identityTier(tier)
	return k, nil
}

// Create stores a new legacy key.
func (s *LegacyKeyStore) Create(ctx context.Context, k ports.LegacyKey) error {
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (api_key, tier, name, active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, k.APIKey, string(k.Tier), k.Name, k.Active, k.CreatedAt)
	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// Deactivate disables a legacy key.
func (s *LegacyKeyStore) Deactivate(ctx context.Context, apiKey string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE api_keys SET active = 0 WHERE api_key = ?
	`, apiKey)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// List returns all legacy keys, oldest first.
func (s *LegacyKeyStore) List(ctx context.Context) ([]ports.LegacyKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT api_key, tier, name, active, created_at
		FROM api_keys
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []ports.LegacyKey
	for rows.Next() {
		var k ports.LegacyKey
		var tier string
		if err := rows.Scan(&k.APIKey, &tier, &k.Name, &k.Active, &k.CreatedAt); err != nil {
			return nil, err
		}
		k.Tier = identityTier(tier)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Ensure interface compliance.
var _ ports.LegacyKeyStore = (*LegacyKeyStore)(nil)
