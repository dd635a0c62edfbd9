package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/roadsafety/roadguard/ports"
)

// AccountStore implements ports.AccountStore using SQLite.
type AccountStore struct {
	db *DB
}

// NewAccountStore creates a new SQLite account store.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, email, password_hash, name, api_key, tier, is_active, created_at, last_login`

// GetByAPIKey retrieves an active account by its API key.
func (s *AccountStore) GetByAPIKey(ctx context.Context, apiKey string) (ports.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE api_key = ? AND is_active = 1
	`, apiKey)
	return scanAccount(row)
}

// GetByEmail retrieves an account by email, active or not.
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (ports.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE email = ?
	`, email)
	return scanAccount(row)
}

// GetByID retrieves an active account by ID.
func (s *AccountStore) GetByID(ctx context.Context, id int64) (ports.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE id = ? AND is_active = 1
	`, id)
	return scanAccount(row)
}

// Create stores a new account and returns it with the assigned ID.
func (s *AccountStore) Create(ctx context.Context, a ports.Account) (ports.Account, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, name, api_key, tier, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.Email, a.PasswordHash, a.Name, a.APIKey, string(a.Tier), a.IsActive, a.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ports.Account{}, ErrDuplicate
		}
		return ports.Account{}, err
	}

	a.ID, err = result.LastInsertId()
	if err != nil {
		return ports.Account{}, err
	}
	return a, nil
}

// Update modifies name and password hash.
func (s *AccountStore) Update(ctx context.Context, a ports.Account) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, password_hash = ?
		WHERE id = ?
	`, a.Name, a.PasswordHash, a.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateAPIKey replaces the account's API key.
func (s *AccountStore) UpdateAPIKey(ctx context.Context, id int64, apiKey string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET api_key = ? WHERE id = ?
	`, apiKey, id)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireRow(result)
}

// UpdateLastLogin stamps a successful login.
func (s *AccountStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_login = ? WHERE id = ?
	`, at.UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Count returns total account count.
func (s *AccountStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (ports.Account, error) {
	var a ports.Account
	var tier string
	var lastLogin sql.NullTime

	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.APIKey, &tier, &a.IsActive, &a.CreatedAt, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Account{}, ErrNotFound
	}
	if err != nil {
		return ports.Account{}, err
	}

	a.Tier = identityTier(tier)
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLogin = &t
	}
	return a, nil
}

// Ensure interface compliance.
var _ ports.AccountStore = (*AccountStore)(nil)
