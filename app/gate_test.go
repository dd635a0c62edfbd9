package app_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/roadsafety/roadguard/adapters/clock"
	"github.com/roadsafety/roadguard/adapters/memory"
	"github.com/roadsafety/roadguard/app"
	"github.com/roadsafety/roadguard/domain/identity"
	"github.com/roadsafety/roadguard/domain/ratelimit"
	"github.com/roadsafety/roadguard/ports"
)

var baseTime = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type gateFixture struct {
	gate     *app.Gate
	clock    *clock.Fake
	accounts *memory.AccountStore
	legacy   *memory.LegacyKeyStore
	cache    *memory.KeyCache
	quota    *memory.QuotaStore
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	fake := clock.NewFake(baseTime)
	accounts := memory.NewAccountStore()
	legacy := memory.NewLegacyKeyStore()
	cache := memory.NewKeyCache(5 * time.Minute)
	quota := memory.NewQuotaStore(memory.QuotaStoreConfig{Clock: fake})
	t.Cleanup(func() {
		cache.Close()
		quota.Close()
	})

	gate := app.NewGate(app.GateDeps{
		Accounts:   accounts,
		LegacyKeys: legacy,
		Cache:      cache,
		Quota:      quota,
		Clock:      fake,
	}, app.GateConfig{Window: time.Hour})

	return &gateFixture{gate: gate, clock: fake, accounts: accounts, legacy: legacy, cache: cache, quota: quota}
}

func TestGate_MissingKey(t *testing.T) {
	f := newGateFixture(t)

	d := f.gate.Authenticate(context.Background(), "", "1.2.3.4", false)
	if d.Allowed {
		t.Fatal("missing key should be denied")
	}
	if d.Status != 401 {
		t.Errorf("status = %d, want 401", d.Status)
	}
	if d.Detail != "API key required. Include 'X-API-Key' header or 'api_key' query parameter." {
		t.Errorf("detail = %q", d.Detail)
	}
	if d.WWWAuthenticate != "API key required" {
		t.Errorf("www-authenticate = %q", d.WWWAuthenticate)
	}
}

func TestGate_InvalidKey(t *testing.T) {
	f := newGateFixture(t)

	d := f.gate.Authenticate(context.Background(), "no-such-key", "1.2.3.4", false)
	if d.Allowed {
		t.Fatal("unknown key should be denied")
	}
	if d.Status != 401 {
		t.Errorf("status = %d, want 401", d.Status)
	}
	if d.Detail != "Invalid API key" {
		t.Errorf("detail = %q", d.Detail)
	}
	if d.WWWAuthenticate != "API key invalid" {
		t.Errorf("www-authenticate = %q", d.WWWAuthenticate)
	}
}

func TestGate_StaticKeyAdmitted(t *testing.T) {
	f := newGateFixture(t)

	d := f.gate.Authenticate(context.Background(), "demo-key-free", "1.2.3.4", false)
	if !d.Allowed {
		t.Fatalf("demo key should be admitted: %+v", d)
	}
	if d.Identity.Tier != identity.TierFree {
		t.Errorf("tier = %q", d.Identity.Tier)
	}
	if d.Limit != 100 || d.Remaining != 99 {
		t.Errorf("limit/remaining = %d/%d, want 100/99", d.Limit, d.Remaining)
	}
	if !d.ResetAt.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("reset at = %v", d.ResetAt)
	}
}

func TestGate_ExhaustionYields429WithResetDetail(t *testing.T) {
	f := newGateFixture(t)
	f.gate.UpdateConfig(app.GateConfig{
		Window:     time.Hour,
		TierLimits: map[identity.Tier]int{identity.TierFree: 2},
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if d := f.gate.Authenticate(ctx, "demo-key-free", "1.2.3.4", false); !d.Allowed {
			t.Fatalf("request %d should pass", i+1)
		}
	}

	d := f.gate.Authenticate(ctx, "demo-key-free", "1.2.3.4", false)
	if d.Allowed {
		t.Fatal("third request should be rate limited")
	}
	if d.Status != 429 {
		t.Errorf("status = %d, want 429", d.Status)
	}
	if !strings.HasPrefix(d.Detail, "Rate limit exceeded. Resets at ") {
		t.Errorf("detail = %q", d.Detail)
	}
	if d.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", d.Remaining)
	}
	if d.RetryAfter != 3600 {
		t.Errorf("retry after = %d, want 3600", d.RetryAfter)
	}
}

func TestGate_WindowResetRestoresAllowance(t *testing.T) {
	f := newGateFixture(t)
	f.gate.UpdateConfig(app.GateConfig{
		Window:     time.Hour,
		TierLimits: map[identity.Tier]int{identity.TierFree: 1},
	})
	ctx := context.Background()

	f.gate.Authenticate(ctx, "demo-key-free", "1.2.3.4", false)
	if d := f.gate.Authenticate(ctx, "demo-key-free", "1.2.3.4", false); d.Allowed {
		t.Fatal("second request should be denied")
	}

	f.clock.Advance(time.Hour + time.Second)
	if d := f.gate.Authenticate(ctx, "demo-key-free", "1.2.3.4", false); !d.Allowed {
		t.Error("request after window expiry should be admitted")
	}
}

func TestGate_UnlimitedTierNeverDenied(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		d := f.gate.Authenticate(ctx, "admin-key-unlimited", "1.2.3.4", false)
		if !d.Allowed {
			t.Fatalf("unlimited key denied on request %d", i+1)
		}
		if d.Limit != ratelimit.Unlimited {
			t.Fatalf("limit = %d, want unlimited sentinel", d.Limit)
		}
	}
}

func TestGate_AccountKeyResolvedAndCached(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	f.accounts.Create(ctx, ports.Account{
		Email: "dev@example.com", APIKey: "rsk_dev", Tier: identity.TierDeveloper, IsActive: true,
	})

	d := f.gate.Authenticate(ctx, "rsk_dev", "1.2.3.4", false)
	if !d.Allowed {
		t.Fatalf("account key should be admitted: %+v", d)
	}
	if d.Identity.UserID == 0 {
		t.Error("account identity should carry user ID")
	}
	if d.Identity.QuotaKey() != "user_1" {
		t.Errorf("quota key = %q, want user_1", d.Identity.QuotaKey())
	}

	if _, ok := f.cache.Get("rsk_dev", f.clock.Now()); !ok {
		t.Error("resolved account key should be cached")
	}
}

func TestGate_QuotaSurvivesKeyRotation(t *testing.T) {
	f := newGateFixture(t)
	f.gate.UpdateConfig(app.GateConfig{
		Window:     time.Hour,
		TierLimits: map[identity.Tier]int{identity.TierFree: 2},
	})
	ctx := context.Background()

	created, _ := f.accounts.Create(ctx, ports.Account{
		Email: "r@example.com", APIKey: "rsk_before", Tier: identity.TierFree, IsActive: true,
	})

	f.gate.Authenticate(ctx, "rsk_before", "1.2.3.4", false)
	f.gate.Authenticate(ctx, "rsk_before", "1.2.3.4", false)

	// Rotate the key. The counter is keyed by user ID and must persist.
	f.accounts.UpdateAPIKey(ctx, created.ID, "rsk_after")
	f.gate.InvalidateKey("rsk_before")

	d := f.gate.Authenticate(ctx, "rsk_after", "1.2.3.4", false)
	if d.Allowed {
		t.Error("rotated key should still be inside the exhausted window")
	}
}

func TestGate_LegacyKeyFallback(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	f.legacy.Create(ctx, ports.LegacyKey{
		APIKey: "legacy-pro", Tier: identity.TierProfessional, Name: "Old importer", Active: true,
	})

	d := f.gate.Authenticate(ctx, "legacy-pro", "1.2.3.4", false)
	if !d.Allowed {
		t.Fatalf("legacy key should be admitted: %+v", d)
	}
	if d.Identity.HasUser() {
		t.Error("legacy identity should not carry a user")
	}
	if d.Limit != 25000 {
		t.Errorf("limit = %d, want 25000", d.Limit)
	}
}

func TestGate_RevokedKeyStaysValidUntilCacheExpiry(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	f.legacy.Create(ctx, ports.LegacyKey{APIKey: "legacy-x", Tier: identity.TierFree, Active: true})

	if d := f.gate.Authenticate(ctx, "legacy-x", "1.2.3.4", false); !d.Allowed {
		t.Fatal("setup: key should work")
	}

	f.legacy.Deactivate(ctx, "legacy-x")

	// Still cached: stale admission is allowed inside the TTL.
	if d := f.gate.Authenticate(ctx, "legacy-x", "1.2.3.4", false); !d.Allowed {
		t.Error("revoked key should remain valid while cached")
	}

	// Past the TTL the revocation takes effect.
	f.clock.Advance(6 * time.Minute)
	if d := f.gate.Authenticate(ctx, "legacy-x", "1.2.3.4", false); d.Allowed {
		t.Error("revoked key should fail after cache expiry")
	}
}

func TestGate_DashboardBypassesQuota(t *testing.T) {
	f := newGateFixture(t)
	f.gate.UpdateConfig(app.GateConfig{
		Window:     time.Hour,
		TierLimits: map[identity.Tier]int{identity.TierFree: 1},
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d := f.gate.Authenticate(ctx, "demo-key-free", "1.2.3.4", true)
		if !d.Allowed {
			t.Fatalf("dashboard request %d should never be limited", i+1)
		}
		if !d.Dashboard {
			t.Fatal("decision should be flagged as dashboard")
		}
	}

	// The quota counter was never touched.
	state, _ := f.quota.Peek(ctx, "demo-key-free")
	if state.Count != 0 {
		t.Errorf("quota count = %d, want 0", state.Count)
	}
}

func TestGate_DashboardUnlimitedReportsSentinelRemaining(t *testing.T) {
	f := newGateFixture(t)

	d := f.gate.Authenticate(context.Background(), "admin-key-unlimited", "1.2.3.4", true)
	if !d.Allowed {
		t.Fatal("dashboard admin should be admitted")
	}
	if d.Remaining != 999999 {
		t.Errorf("remaining = %d, want 999999", d.Remaining)
	}
}

func TestGate_OptionalAnonymousPerIP(t *testing.T) {
	f := newGateFixture(t)
	f.gate.UpdateConfig(app.GateConfig{
		Window:     time.Hour,
		TierLimits: map[identity.Tier]int{identity.TierFree: 1},
	})
	ctx := context.Background()

	if d := f.gate.OptionalAuthenticate(ctx, "", "10.0.0.1"); !d.Allowed {
		t.Fatal("first anonymous request should pass")
	}

	d := f.gate.OptionalAuthenticate(ctx, "", "10.0.0.1")
	if d.Allowed {
		t.Fatal("second anonymous request from same IP should be limited")
	}
	if d.Detail != "Rate limit exceeded. Get an API key for higher limits." {
		t.Errorf("detail = %q", d.Detail)
	}

	// A different address gets its own window.
	if d := f.gate.OptionalAuthenticate(ctx, "", "10.0.0.2"); !d.Allowed {
		t.Error("different IP should have its own counter")
	}
}

func TestGate_OptionalInvalidKeyFallsBackToAnonymous(t *testing.T) {
	f := newGateFixture(t)

	d := f.gate.OptionalAuthenticate(context.Background(), "bogus", "10.0.0.9")
	if !d.Allowed {
		t.Fatalf("invalid key on optional route should degrade to anonymous: %+v", d)
	}
	if d.Identity.Key != "anon_10.0.0.9" {
		t.Errorf("identity key = %q", d.Identity.Key)
	}
}

func TestGate_OptionalValidKeyLimitedWithPlainDetail(t *testing.T) {
	f := newGateFixture(t)
	f.gate.UpdateConfig(app.GateConfig{
		Window:     time.Hour,
		TierLimits: map[identity.Tier]int{identity.TierFree: 1},
	})
	ctx := context.Background()

	f.gate.OptionalAuthenticate(ctx, "demo-key-free", "10.0.0.1")
	d := f.gate.OptionalAuthenticate(ctx, "demo-key-free", "10.0.0.1")
	if d.Allowed {
		t.Fatal("second request should be limited")
	}
	if d.Detail != "Rate limit exceeded" {
		t.Errorf("detail = %q", d.Detail)
	}
}

func TestGate_StatusDoesNotConsume(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	f.gate.Authenticate(ctx, "demo-key-free", "1.2.3.4", false)

	id, _ := f.gate.Resolve(ctx, "demo-key-free")
	for i := 0; i < 3; i++ {
		status, err := f.gate.Status(ctx, id)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if status.Remaining != 99 {
			t.Errorf("remaining = %d, want 99", status.Remaining)
		}
		if status.ResetInSeconds != 3600 {
			t.Errorf("reset in = %d, want 3600", status.ResetInSeconds)
		}
	}
}

func TestGate_StatusFreshIdentityReportsFullAllowance(t *testing.T) {
	f := newGateFixture(t)

	status, err := f.gate.Status(context.Background(), identity.Anonymous("10.1.1.1"))
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Remaining != 100 {
		t.Errorf("remaining = %d, want full allowance", status.Remaining)
	}
	if status.Tier != identity.TierFree {
		t.Errorf("tier = %q", status.Tier)
	}
}

func TestGate_HotConfigSwap(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	d := f.gate.Authenticate(ctx, "demo-key-free", "1.2.3.4", false)
	if d.Limit != 100 {
		t.Fatalf("limit = %d, want 100", d.Limit)
	}

	f.gate.UpdateConfig(app.GateConfig{
		Window:     30 * time.Minute,
		TierLimits: map[identity.Tier]int{identity.TierFree: 10},
	})

	d = f.gate.Authenticate(ctx, "demo-key-free", "1.2.3.4", false)
	if d.Limit != 10 {
		t.Errorf("limit after reload = %d, want 10", d.Limit)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := app.FormatLimit(100); got != "100" {
		t.Errorf("FormatLimit(100) = %q", got)
	}
	if got := app.FormatLimit(ratelimit.Unlimited); got != "unlimited" {
		t.Errorf("FormatLimit(unlimited) = %q", got)
	}
	if got := app.FormatRemaining(ratelimit.Unlimited); got != "999999" {
		t.Errorf("FormatRemaining(unlimited) = %q", got)
	}
}
