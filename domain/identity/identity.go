// Package identity provides API key identity value types and pure
// resolution helpers. This package has NO dependencies on I/O.
package identity

import "strconv"

// Tier is a subscription tier controlling the hourly request ceiling.
type Tier string

const (
	TierFree         Tier = "free"
	TierDeveloper    Tier = "developer"
	TierProfessional Tier = "professional"
	TierUnlimited    Tier = "unlimited"
)

// Unlimited is the sentinel ceiling for the unlimited tier.
const Unlimited = -1

// tierLimits maps each tier to its requests-per-window ceiling.
var tierLimits = map[Tier]int{
	TierFree:         100,
	TierDeveloper:    5000,
	TierProfessional: 25000,
	TierUnlimited:    Unlimited,
}

// Limit returns the request ceiling for a tier.
// Unknown tiers are treated as free.
func (t Tier) Limit() int {
	if limit, ok := tierLimits[t]; ok {
		return limit
	}
	return tierLimits[TierFree]
}

// IsUnlimited reports whether the tier has no request ceiling.
func (t Tier) IsUnlimited() bool {
	return t.Limit() == Unlimited
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierLimits[t]
	return ok
}

// Identity is a resolved API credential (immutable value type).
type Identity struct {
	Key    string
	Tier   Tier
	Name   string
	UserID int64 // 0 = no account attached (legacy or static keys)
}

// HasUser reports whether the identity is backed by a user account.
func (id Identity) HasUser() bool {
	return id.UserID != 0
}

// QuotaKey returns the counter key for rate limiting.
// Account-backed identities count against the user, so the counter
// survives API key regeneration. Everything else counts against the
// raw key string.
func (id Identity) QuotaKey() string {
	if id.HasUser() {
		return "user_" + strconv.FormatInt(id.UserID, 10)
	}
	return id.Key
}

// Anonymous builds the synthetic free-tier identity for unauthenticated
// traffic, keyed by client address.
func Anonymous(clientIP string) Identity {
	if clientIP == "" {
		clientIP = "unknown"
	}
	key := "anon_" + clientIP
	return Identity{Key: key, Tier: TierFree, Name: "Anonymous"}
}

// Public is the identity attached to allowlisted paths that bypass
// authentication entirely.
func Public() Identity {
	return Identity{Key: "public", Tier: TierFree, Name: "Public"}
}

// staticKey is an entry in the compiled-in key registry.
type staticKey struct {
	tier   Tier
	name   string
	active bool
}

// staticRegistry holds the built-in demo and operator keys.
var staticRegistry = map[string]staticKey{
	"demo-key-free":       {tier: TierFree, name: "Demo Free", active: true},
	"demo-key-dev":        {tier: TierDeveloper, name: "Demo Developer", active: true},
	"demo-key-pro":        {tier: TierProfessional, name: "Demo Professional", active: true},
	"admin-key-unlimited": {tier: TierUnlimited, name: "Admin", active: true},
}

// ResolveStatic checks the compiled-in registry.
// Inactive entries resolve to not-found.
func ResolveStatic(key string) (Identity, bool) {
	entry, ok := staticRegistry[key]
	if !ok || !entry.active {
		return Identity{}, false
	}
	return Identity{Key: key, Tier: entry.tier, Name: entry.name}, true
}

// StaticKeys returns the registered static key strings (for diagnostics).
func StaticKeys() []string {
	keys := make([]string, 0, len(staticRegistry))
	for k := range staticRegistry {
		keys = append(keys, k)
	}
	return keys
}
