package app

import (
	"context"
	"errors"
	"strings"

	"github.com/roadsafety/roadguard/domain/identity"
	"github.com/roadsafety/roadguard/domain/usage"
	"github.com/roadsafety/roadguard/ports"
)

// Account service errors.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// AccountDeps contains dependencies for AccountService.
type AccountDeps struct {
	Accounts ports.AccountStore
	Usage    ports.UsageStore
	Hasher   ports.Hasher
	Clock    ports.Clock
	KeyGen   ports.IDGenerator
	Gate     *Gate
}

// AccountService handles signup, login, and account self-service.
type AccountService struct {
	accounts ports.AccountStore
	usage    ports.UsageStore
	hasher   ports.Hasher
	clock    ports.Clock
	keyGen   ports.IDGenerator
	gate     *Gate
}

// NewAccountService creates a new account service.
func NewAccountService(deps AccountDeps) *AccountService {
	return &AccountService{
		accounts: deps.Accounts,
		usage:    deps.Usage,
		hasher:   deps.Hasher,
		clock:    deps.Clock,
		keyGen:   deps.KeyGen,
		gate:     deps.Gate,
	}
}

// Signup registers a new account on the free tier and issues a fresh
// API key.
func (s *AccountService) Signup(ctx context.Context, email, password, name string) (ports.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return ports.Account{}, ErrInvalidEmail
	}
	if len(password) < 8 {
		return ports.Account{}, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return ports.Account{}, err
	}

	a := ports.Account{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		APIKey:       s.keyGen.New(),
		Tier:         identity.TierFree,
		IsActive:     true,
		CreatedAt:    s.clock.Now().UTC(),
	}

	created, err := s.accounts.Create(ctx, a)
	if err != nil {
		if isDuplicate(err) {
			return ports.Account{}, ErrEmailTaken
		}
		return ports.Account{}, err
	}
	return created, nil
}

// Login verifies credentials and stamps last_login.
// Deactivated accounts and unknown emails fail identically.
func (s *AccountService) Login(ctx context.Context, email, password string) (ports.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil || !a.IsActive {
		return ports.Account{}, ErrInvalidCredentials
	}
	if !s.hasher.Compare(a.PasswordHash, password) {
		return ports.Account{}, ErrInvalidCredentials
	}

	now := s.clock.Now().UTC()
	if err := s.accounts.UpdateLastLogin(ctx, a.ID, now); err != nil {
		return ports.Account{}, err
	}
	a.LastLogin = &now
	return a, nil
}

// Get returns the account owning an API key.
func (s *AccountService) Get(ctx context.Context, apiKey string) (ports.Account, error) {
	a, err := s.accounts.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return ports.Account{}, ErrAccountNotFound
	}
	return a, nil
}

// UpdateProfile changes the display name and, if a new password is
// given, the password hash.
func (s *AccountService) UpdateProfile(ctx context.Context, apiKey, name, newPassword string) (ports.Account, error) {
	a, err := s.accounts.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return ports.Account{}, ErrAccountNotFound
	}

	if name != "" {
		a.Name = strings.TrimSpace(name)
	}
	if newPassword != "" {
		if len(newPassword) < 8 {
			return ports.Account{}, ErrWeakPassword
		}
		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return ports.Account{}, err
		}
		a.PasswordHash = hash
	}

	if err := s.accounts.Update(ctx, a); err != nil {
		return ports.Account{}, err
	}
	return a, nil
}

// RegenerateAPIKey replaces the account's key and purges the old one
// from the resolver cache so it stops working within one request.
// The quota counter is keyed by user ID, so the window survives.
func (s *AccountService) RegenerateAPIKey(ctx context.Context, apiKey string) (ports.Account, error) {
	a, err := s.accounts.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return ports.Account{}, ErrAccountNotFound
	}

	newKey := s.keyGen.New()
	if err := s.accounts.UpdateAPIKey(ctx, a.ID, newKey); err != nil {
		return ports.Account{}, err
	}

	if s.gate != nil {
		s.gate.InvalidateKey(a.APIKey)
	}

	a.APIKey = newKey
	return a, nil
}

// UsageStats returns the per-account usage report.
func (s *AccountService) UsageStats(ctx context.Context, apiKey string) (usage.AccountStats, error) {
	if _, err := s.accounts.GetByAPIKey(ctx, apiKey); err != nil {
		return usage.AccountStats{}, ErrAccountNotFound
	}
	return s.usage.AccountStats(ctx, apiKey, s.clock.Now())
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}

func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
