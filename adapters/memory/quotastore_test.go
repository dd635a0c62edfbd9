package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/roadsafety/roadguard/adapters/clock"
	"github.com/roadsafety/roadguard/adapters/memory"
	"github.com/roadsafety/roadguard/domain/ratelimit"
)

var baseTime = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newQuotaStore(t *testing.T) *memory.QuotaStore {
	t.Helper()
	s := memory.NewQuotaStore(memory.QuotaStoreConfig{})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestQuotaStore_CountsPerKey(t *testing.T) {
	s := newQuotaStore(t)
	cfg := ratelimit.Config{Limit: 2, Window: time.Hour}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := s.GetAndCheck(ctx, "user_1", cfg, baseTime)
		if err != nil {
			t.Fatalf("GetAndCheck: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, _ := s.GetAndCheck(ctx, "user_1", cfg, baseTime)
	if res.Allowed {
		t.Error("third request should be denied")
	}

	// A different key is unaffected.
	res, _ = s.GetAndCheck(ctx, "user_2", cfg, baseTime)
	if !res.Allowed {
		t.Error("separate key should have its own counter")
	}
}

func TestQuotaStore_WindowReset(t *testing.T) {
	s := newQuotaStore(t)
	cfg := ratelimit.Config{Limit: 1, Window: time.Hour}
	ctx := context.Background()

	s.GetAndCheck(ctx, "k", cfg, baseTime)
	res, _ := s.GetAndCheck(ctx, "k", cfg, baseTime)
	if res.Allowed {
		t.Fatal("second request in window should be denied")
	}

	res, _ = s.GetAndCheck(ctx, "k", cfg, baseTime.Add(time.Hour+time.Second))
	if !res.Allowed {
		t.Error("request after window expiry should be allowed")
	}
}

func TestQuotaStore_NoOverAdmissionUnderConcurrency(t *testing.T) {
	s := newQuotaStore(t)
	cfg := ratelimit.Config{Limit: 100, Window: time.Hour}
	ctx := context.Background()

	const workers = 20
	const perWorker = 10 // 200 attempts against a limit of 100

	var allowed int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := int64(0)
			for i := 0; i < perWorker; i++ {
				res, err := s.GetAndCheck(ctx, "shared", cfg, baseTime)
				if err == nil && res.Allowed {
					local++
				}
			}
			mu.Lock()
			allowed += local
			mu.Unlock()
		}()
	}
	wg.Wait()

	if allowed != 100 {
		t.Errorf("admitted %d requests, want exactly 100", allowed)
	}
}

func TestQuotaStore_Peek(t *testing.T) {
	s := newQuotaStore(t)
	cfg := ratelimit.Config{Limit: 10, Window: time.Hour}
	ctx := context.Background()

	s.GetAndCheck(ctx, "k", cfg, baseTime)
	s.GetAndCheck(ctx, "k", cfg, baseTime)

	state, err := s.Peek(ctx, "k")
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if state.Count != 2 {
		t.Errorf("count = %d, want 2", state.Count)
	}

	// Peek must not consume.
	state2, _ := s.Peek(ctx, "k")
	if state2.Count != 2 {
		t.Errorf("count after second peek = %d, want 2", state2.Count)
	}
}

func TestQuotaStore_SweepDropsExpired(t *testing.T) {
	fake := clock.NewFake(baseTime)
	s := memory.NewQuotaStore(memory.QuotaStoreConfig{Clock: fake})
	defer s.Close()

	cfg := ratelimit.Config{Limit: 10, Window: time.Hour}
	s.GetAndCheck(context.Background(), "old", cfg, baseTime)

	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}

	// Window ends at base+1h; sweep keeps an hour of grace after that.
	fake.Set(baseTime.Add(3 * time.Hour))
	s.Sweep()

	if s.Len() != 0 {
		t.Errorf("len after sweep = %d, want 0", s.Len())
	}
}
