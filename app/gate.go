// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/roadsafety/roadguard/domain/identity"
	"github.com/roadsafety/roadguard/domain/ratelimit"
	"github.com/roadsafety/roadguard/ports"
)

// Denial reasons, surfaced to metrics and logs.
const (
	ReasonMissingKey  = "missing_api_key"
	ReasonInvalidKey  = "invalid_api_key"
	ReasonRateLimited = "rate_limit_exceeded"
)

// Denial detail strings. These are part of the public API contract.
const (
	detailKeyRequired     = "API key required. Include 'X-API-Key' header or 'api_key' query parameter."
	detailKeyInvalid      = "Invalid API key"
	detailRateLimited     = "Rate limit exceeded"
	detailRateLimitedAnon = "Rate limit exceeded. Get an API key for higher limits."
)

// dashboardRemaining is reported for unlimited tiers where a concrete
// remaining count is meaningless.
const dashboardRemaining = 999999

// Decision is the outcome of an admission check for one request.
type Decision struct {
	Allowed  bool
	Identity identity.Identity

	// Denial details (set when Allowed is false).
	Status          int
	Reason          string
	Detail          string
	WWWAuthenticate string

	// Rate limit accounting, valid on both outcomes.
	Limit      int // ratelimit.Unlimited for the unlimited tier
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set on 429 only

	// Dashboard requests bypass quota and usage accounting.
	Dashboard bool
}

// RateLimitHeaders reports whether the decision carries limit state
// worth writing into response headers.
func (d Decision) RateLimitHeaders() bool {
	return !d.ResetAt.IsZero()
}

// GateConfig contains hot-reloadable admission settings.
type GateConfig struct {
	// Window is the fixed rate limit window (default one hour).
	Window time.Duration

	// TierLimits overrides the built-in per-tier ceilings.
	TierLimits map[identity.Tier]int
}

// GateDeps contains dependencies for Gate.
type GateDeps struct {
	Accounts   ports.AccountStore
	LegacyKeys ports.LegacyKeyStore
	Cache      ports.KeyCache
	Quota      ports.QuotaStore
	Clock      ports.Clock
}

// Gate is the admission service: it resolves API keys to identities
// and applies fixed-window rate limiting per tier.
type Gate struct {
	accounts   ports.AccountStore
	legacyKeys ports.LegacyKeyStore
	cache      ports.KeyCache
	quota      ports.QuotaStore
	clock      ports.Clock

	cfg atomic.Pointer[GateConfig]
}

// NewGate creates a new admission gate.
func NewGate(deps GateDeps, cfg GateConfig) *Gate {
	g := &Gate{
		accounts:   deps.Accounts,
		legacyKeys: deps.LegacyKeys,
		cache:      deps.Cache,
		quota:      deps.Quota,
		clock:      deps.Clock,
	}
	g.UpdateConfig(cfg)
	return g
}

// UpdateConfig swaps in new admission settings. Thread-safe; in-flight
// requests keep the config they started with.
func (g *Gate) UpdateConfig(cfg GateConfig) {
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	g.cfg.Store(&cfg)
}

func (g *Gate) getConfig() *GateConfig {
	return g.cfg.Load()
}

// limitFor returns the per-window ceiling for a tier, honoring
// configured overrides.
func (cfg *GateConfig) limitFor(tier identity.Tier) int {
	if limit, ok := cfg.TierLimits[tier]; ok {
		return limit
	}
	return tier.Limit()
}

// Authenticate admits or denies a request that requires an API key.
// Dashboard requests resolve the identity but skip quota consumption.
func (g *Gate) Authenticate(ctx context.Context, apiKey, clientIP string, dashboard bool) Decision {
	now := g.clock.Now()
	cfg := g.getConfig()

	// 1. A key must be present.
	if apiKey == "" {
		return Decision{
			Status:          401,
			Reason:          ReasonMissingKey,
			Detail:          detailKeyRequired,
			WWWAuthenticate: "API key required",
		}
	}

	// 2. Resolve it to an identity.
	id, ok := g.resolve(ctx, apiKey, now)
	if !ok {
		return Decision{
			Status:          401,
			Reason:          ReasonInvalidKey,
			Detail:          detailKeyInvalid,
			WWWAuthenticate: "API key invalid",
		}
	}

	limit := cfg.limitFor(id.Tier)

	// 3. Dashboard traffic reports limits without consuming them.
	if dashboard {
		remaining := limit
		if limit == ratelimit.Unlimited {
			remaining = dashboardRemaining
		}
		return Decision{
			Allowed:   true,
			Identity:  id,
			Limit:     limit,
			Remaining: remaining,
			ResetAt:   now.Add(cfg.Window),
			Dashboard: true,
		}
	}

	// 4. Check and consume quota.
	return g.admit(ctx, id, limit, cfg.Window, now, detailRateLimitedResetAt)
}

// OptionalAuthenticate admits a request that may carry an API key.
// Missing or invalid keys fall back to per-IP free tier limiting.
func (g *Gate) OptionalAuthenticate(ctx context.Context, apiKey, clientIP string) Decision {
	now := g.clock.Now()
	cfg := g.getConfig()

	if apiKey != "" {
		if id, ok := g.resolve(ctx, apiKey, now); ok {
			return g.admit(ctx, id, cfg.limitFor(id.Tier), cfg.Window, now, detailRateLimitedPlain)
		}
	}

	id := identity.Anonymous(clientIP)
	return g.admit(ctx, id, cfg.limitFor(id.Tier), cfg.Window, now, detailRateLimitedAnonymous)
}

// denialDetail selects the 429 body for a given caller class.
type denialDetail int

const (
	detailRateLimitedResetAt denialDetail = iota
	detailRateLimitedPlain
	detailRateLimitedAnonymous
)

// admit runs the atomic quota check and shapes the decision.
// Store errors fail closed: an identity we cannot meter is denied.
func (g *Gate) admit(ctx context.Context, id identity.Identity, limit int, window time.Duration, now time.Time, detail denialDetail) Decision {
	rlCfg := ratelimit.Config{Limit: limit, Window: window}

	result, err := g.quota.GetAndCheck(ctx, id.QuotaKey(), rlCfg, now)
	if err != nil {
		return Decision{
			Status:   503,
			Reason:   ReasonRateLimited,
			Detail:   "Rate limiting unavailable",
			Identity: id,
		}
	}

	d := Decision{
		Identity:  id,
		Limit:     limit,
		Remaining: result.Remaining,
		ResetAt:   result.ResetAt,
	}

	if !result.Allowed {
		d.Status = 429
		d.Reason = ReasonRateLimited
		d.Remaining = 0
		d.RetryAfter = int(ratelimit.RetryAfter(result, now).Seconds())
		switch detail {
		case detailRateLimitedPlain:
			d.Detail = detailRateLimited
		case detailRateLimitedAnonymous:
			d.Detail = detailRateLimitedAnon
		default:
			d.Detail = detailRateLimited + ". Resets at " + result.ResetAt.UTC().Format(time.RFC3339)
		}
		return d
	}

	d.Allowed = true
	return d
}

// RateLimitStatus reports the caller's current window without consuming
// a request.
type RateLimitStatus struct {
	Tier           identity.Tier
	Limit          int
	Remaining      int
	ResetAt        time.Time
	ResetInSeconds int
}

// Status returns the current rate limit state for an identity.
func (g *Gate) Status(ctx context.Context, id identity.Identity) (RateLimitStatus, error) {
	now := g.clock.Now()
	cfg := g.getConfig()
	limit := cfg.limitFor(id.Tier)

	state, err := g.quota.Peek(ctx, id.QuotaKey())
	if err != nil {
		return RateLimitStatus{}, err
	}

	status := RateLimitStatus{Tier: id.Tier, Limit: limit}

	// An expired or never-used window reports the full allowance.
	if state.ResetAt.IsZero() || now.After(state.ResetAt) {
		status.Remaining = limit
		status.ResetAt = now.Add(cfg.Window)
	} else {
		status.Remaining = limit - state.Count
		if status.Remaining < 0 {
			status.Remaining = 0
		}
		status.ResetAt = state.ResetAt
	}
	if limit == ratelimit.Unlimited {
		status.Remaining = ratelimit.Unlimited
	}
	status.ResetInSeconds = int(status.ResetAt.Sub(now).Seconds())
	return status, nil
}

// Resolve looks up an identity for an API key without any quota
// accounting (used by account endpoints).
func (g *Gate) Resolve(ctx context.Context, apiKey string) (identity.Identity, bool) {
	if apiKey == "" {
		return identity.Identity{}, false
	}
	return g.resolve(ctx, apiKey, g.clock.Now())
}

// resolve layers key sources: static registry, cache, accounts, legacy
// keys. Anything else fails closed.
func (g *Gate) resolve(ctx context.Context, apiKey string, now time.Time) (identity.Identity, bool) {
	if id, ok := identity.ResolveStatic(apiKey); ok {
		return id, true
	}

	if id, ok := g.cache.Get(apiKey, now); ok {
		return id, true
	}

	if a, err := g.accounts.GetByAPIKey(ctx, apiKey); err == nil {
		id := identity.Identity{Key: a.APIKey, Tier: a.Tier, Name: a.Name, UserID: a.ID}
		g.cache.Set(apiKey, id, now)
		return id, true
	}

	if k, err := g.legacyKeys.GetByAPIKey(ctx, apiKey); err == nil {
		id := identity.Identity{Key: k.APIKey, Tier: k.Tier, Name: k.Name}
		g.cache.Set(apiKey, id, now)
		return id, true
	}

	return identity.Identity{}, false
}

// InvalidateKey drops a key from the cache after rotation or
// revocation.
func (g *Gate) InvalidateKey(apiKey string) {
	g.cache.Delete(apiKey)
}

// FormatLimit renders a limit for response headers.
func FormatLimit(limit int) string {
	if limit == ratelimit.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(limit)
}

// FormatRemaining renders a remaining count for response headers.
func FormatRemaining(remaining int) string {
	if remaining == ratelimit.Unlimited {
		return strconv.Itoa(dashboardRemaining)
	}
	return strconv.Itoa(remaining)
}
