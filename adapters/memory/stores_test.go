package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roadsafety/roadguard/adapters/memory"
	"github.com/roadsafety/roadguard/domain/identity"
	"github.com/roadsafety/roadguard/domain/usage"
	"github.com/roadsafety/roadguard/ports"
)

func TestAccountStore_CreateAndLookup(t *testing.T) {
	s := memory.NewAccountStore()
	ctx := context.Background()

	created, err := s.Create(ctx, ports.Account{
		Email:     "alice@example.com",
		Name:      "Alice",
		APIKey:    "rsk_alice",
		Tier:      identity.TierDeveloper,
		IsActive:  true,
		CreatedAt: baseTime,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	byKey, err := s.GetByAPIKey(ctx, "rsk_alice")
	if err != nil {
		t.Fatalf("GetByAPIKey: %v", err)
	}
	if byKey.Email != "alice@example.com" {
		t.Errorf("email = %q", byKey.Email)
	}

	if _, err := s.GetByEmail(ctx, "alice@example.com"); err != nil {
		t.Errorf("GetByEmail: %v", err)
	}
	if _, err := s.GetByID(ctx, created.ID); err != nil {
		t.Errorf("GetByID: %v", err)
	}
}

func TestAccountStore_DuplicateEmail(t *testing.T) {
	s := memory.NewAccountStore()
	ctx := context.Background()

	a := ports.Account{Email: "dup@example.com", APIKey: "rsk_1", IsActive: true}
	if _, err := s.Create(ctx, a); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	a.APIKey = "rsk_2"
	if _, err := s.Create(ctx, a); !errors.Is(err, memory.ErrDuplicate) {
		t.Errorf("second Create err = %v, want ErrDuplicate", err)
	}
}

func TestAccountStore_InactiveHiddenFromKeyLookup(t *testing.T) {
	s := memory.NewAccountStore()
	ctx := context.Background()

	s.Create(ctx, ports.Account{Email: "x@example.com", APIKey: "rsk_x", IsActive: false})

	if _, err := s.GetByAPIKey(ctx, "rsk_x"); !errors.Is(err, memory.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for inactive account", err)
	}
	// Email lookup still sees it (login must distinguish deactivated).
	if _, err := s.GetByEmail(ctx, "x@example.com"); err != nil {
		t.Errorf("GetByEmail: %v", err)
	}
}

func TestAccountStore_UpdateAPIKey(t *testing.T) {
	s := memory.NewAccountStore()
	ctx := context.Background()

	created, _ := s.Create(ctx, ports.Account{Email: "k@example.com", APIKey: "rsk_old", IsActive: true})

	if err := s.UpdateAPIKey(ctx, created.ID, "rsk_new"); err != nil {
		t.Fatalf("UpdateAPIKey: %v", err)
	}

	if _, err := s.GetByAPIKey(ctx, "rsk_old"); !errors.Is(err, memory.ErrNotFound) {
		t.Error("old key should no longer resolve")
	}
	a, err := s.GetByAPIKey(ctx, "rsk_new")
	if err != nil {
		t.Fatalf("GetByAPIKey(new): %v", err)
	}
	if a.ID != created.ID {
		t.Errorf("ID = %d, want %d", a.ID, created.ID)
	}
}

func TestAccountStore_UpdateLastLogin(t *testing.T) {
	s := memory.NewAccountStore()
	ctx := context.Background()

	created, _ := s.Create(ctx, ports.Account{Email: "l@example.com", APIKey: "rsk_l", IsActive: true})
	at := baseTime.Add(time.Minute)
	if err := s.UpdateLastLogin(ctx, created.ID, at); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}

	a, _ := s.GetByID(ctx, created.ID)
	if a.LastLogin == nil || !a.LastLogin.Equal(at) {
		t.Errorf("LastLogin = %v, want %v", a.LastLogin, at)
	}
}

func TestLegacyKeyStore_Lifecycle(t *testing.T) {
	s := memory.NewLegacyKeyStore()
	ctx := context.Background()

	k := ports.LegacyKey{APIKey: "rsk_legacy", Tier: identity.TierProfessional, Name: "Batch importer", Active: true, CreatedAt: baseTime}
	if err := s.Create(ctx, k); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.GetByAPIKey(ctx, "rsk_legacy")
	if err != nil {
		t.Fatalf("GetByAPIKey: %v", err)
	}
	if got.Tier != identity.TierProfessional {
		t.Errorf("tier = %q", got.Tier)
	}

	if err := s.Deactivate(ctx, "rsk_legacy"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := s.GetByAPIKey(ctx, "rsk_legacy"); !errors.Is(err, memory.ErrNotFound) {
		t.Error("deactivated key should not resolve")
	}

	all, _ := s.List(ctx)
	if len(all) != 1 || all[0].Active {
		t.Errorf("List = %+v, want one inactive key", all)
	}
}

func TestUsageStore_StatsFiltersByKeyAndPeriod(t *testing.T) {
	s := memory.NewUsageStore()
	ctx := context.Background()

	s.RecordBatch(ctx, []usage.Record{
		{APIKey: "a", Endpoint: "/api/accidents", StatusCode: 200, LatencyMs: 10, Timestamp: baseTime.Add(-30 * time.Minute)},
		{APIKey: "a", Endpoint: "/api/stats", StatusCode: 500, LatencyMs: 30, Timestamp: baseTime.Add(-10 * time.Minute)},
		{APIKey: "b", Endpoint: "/api/accidents", StatusCode: 200, LatencyMs: 50, Timestamp: baseTime.Add(-5 * time.Minute)},
		{APIKey: "a", Endpoint: "/api/accidents", StatusCode: 200, LatencyMs: 20, Timestamp: baseTime.Add(-26 * time.Hour)},
	})

	stats, err := s.Stats(ctx, "a", 24, baseTime)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalRequests != 2 {
		t.Errorf("total = %d, want 2", stats.TotalRequests)
	}
	if stats.UniqueEndpoints != 2 {
		t.Errorf("unique = %d, want 2", stats.UniqueEndpoints)
	}
	if stats.ErrorCount != 1 {
		t.Errorf("errors = %d, want 1", stats.ErrorCount)
	}
	if stats.AvgLatencyMs != 20 {
		t.Errorf("avg latency = %v, want 20", stats.AvgLatencyMs)
	}

	all, _ := s.Stats(ctx, "", 24, baseTime)
	if all.TotalRequests != 3 {
		t.Errorf("unfiltered total = %d, want 3", all.TotalRequests)
	}
}

func TestUsageStore_AccountStats(t *testing.T) {
	s := memory.NewUsageStore()
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	s.RecordBatch(ctx, []usage.Record{
		{APIKey: "a", Endpoint: "/api/accidents", Timestamp: now.Add(-5 * time.Minute)},  // current hour
		{APIKey: "a", Endpoint: "/api/accidents", Timestamp: now.Add(-2 * time.Hour)},    // today
		{APIKey: "a", Endpoint: "/api/stats", Timestamp: now.Add(-48 * time.Hour)},       // older
		{APIKey: "b", Endpoint: "/api/accidents", Timestamp: now},
	})

	got, err := s.AccountStats(ctx, "a", now)
	if err != nil {
		t.Fatalf("AccountStats: %v", err)
	}
	if got.CurrentHour != 1 {
		t.Errorf("current hour = %d, want 1", got.CurrentHour)
	}
	if got.Today != 2 {
		t.Errorf("today = %d, want 2", got.Today)
	}
	if got.Total != 3 {
		t.Errorf("total = %d, want 3", got.Total)
	}
	if len(got.TopEndpoints) != 2 || got.TopEndpoints[0].Endpoint != "/api/accidents" {
		t.Errorf("top endpoints = %+v", got.TopEndpoints)
	}
	if len(got.Hourly) != 2 {
		t.Errorf("hourly buckets = %d, want 2 (older record excluded)", len(got.Hourly))
	}
}
