package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadsafety/roadguard/adapters/memory"
	"github.com/roadsafety/roadguard/bootstrap"
	"github.com/roadsafety/roadguard/domain/usage"
)

func TestLocalUsageRecorder_FlushWritesBuffered(t *testing.T) {
	store := memory.NewUsageStore()
	r := bootstrap.NewLocalUsageRecorder(store, zerolog.Nop(), nil, 100, time.Hour)
	defer r.Close()

	r.Record(usage.Record{APIKey: "a", Endpoint: "/api/accidents", Timestamp: time.Now()})
	r.Record(usage.Record{APIKey: "b", Endpoint: "/api/stats", Timestamp: time.Now()})

	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	count, _ := store.Count(context.Background())
	if count != 2 {
		t.Errorf("stored = %d, want 2", count)
	}
}

func TestLocalUsageRecorder_BatchSizeTriggersWrite(t *testing.T) {
	store := memory.NewUsageStore()
	r := bootstrap.NewLocalUsageRecorder(store, zerolog.Nop(), nil, 3, time.Hour)

	for i := 0; i < 3; i++ {
		r.Record(usage.Record{APIKey: "a", Endpoint: "/e", Timestamp: time.Now()})
	}

	// Close waits for the background batch write.
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	count, _ := store.Count(context.Background())
	if count != 3 {
		t.Errorf("stored = %d, want 3", count)
	}
}

func TestLocalUsageRecorder_CloseDrains(t *testing.T) {
	store := memory.NewUsageStore()
	r := bootstrap.NewLocalUsageRecorder(store, zerolog.Nop(), nil, 100, time.Hour)

	r.Record(usage.Record{APIKey: "a", Endpoint: "/e", Timestamp: time.Now()})

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	count, _ := store.Count(context.Background())
	if count != 1 {
		t.Errorf("stored = %d, want 1", count)
	}

	// Close is idempotent.
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestLocalUsageRecorder_IntervalFlush(t *testing.T) {
	store := memory.NewUsageStore()
	r := bootstrap.NewLocalUsageRecorder(store, zerolog.Nop(), nil, 100, 20*time.Millisecond)
	defer r.Close()

	r.Record(usage.Record{APIKey: "a", Endpoint: "/e", Timestamp: time.Now()})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := store.Count(context.Background()); n == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("interval flush never wrote the record")
}
