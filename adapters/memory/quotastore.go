// Package memory provides in-process store implementations.
// The quota store and key cache are the production single-node adapters;
// the account, legacy key, and usage stores are test doubles.
package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/roadsafety/roadguard/domain/ratelimit"
	"github.com/roadsafety/roadguard/ports"
)

// quotaShard is a single shard of the quota store.
type quotaShard struct {
	mu    sync.RWMutex
	state map[string]ratelimit.WindowState
}

// QuotaStore is a sharded in-memory fixed-window counter store.
// Sharding reduces lock contention; each check-and-increment runs under
// a single shard lock so a counter can never over-admit.
type QuotaStore struct {
	shards    []*quotaShard
	numShards int
	clock     ports.Clock
	sweep     *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// QuotaStoreConfig configures the quota store.
type QuotaStoreConfig struct {
	NumShards     int           // Number of shards (default: 32)
	SweepInterval time.Duration // How often to drop expired windows (default: 5m)
	Clock         ports.Clock   // Clock used by the sweep (default: wall clock)
}

// realClock avoids importing adapters/clock (keeps adapters independent).
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewQuotaStore creates a new sharded quota store and starts its sweep.
func NewQuotaStore(cfg QuotaStoreConfig) *QuotaStore {
	if cfg.NumShards <= 0 {
		cfg.NumShards = 32
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}

	s := &QuotaStore{
		shards:    make([]*quotaShard, cfg.NumShards),
		numShards: cfg.NumShards,
		clock:     cfg.Clock,
		done:      make(chan struct{}),
	}

	for i := range s.shards {
		s.shards[i] = &quotaShard{
			state: make(map[string]ratelimit.WindowState),
		}
	}

	s.sweep = time.NewTicker(cfg.SweepInterval)
	go s.sweepLoop()

	return s
}

// getShard returns the shard for a quota key using consistent hashing.
func (s *QuotaStore) getShard(quotaKey string) *quotaShard {
	h := fnv.New32a()
	h.Write([]byte(quotaKey))
	return s.shards[h.Sum32()%uint32(s.numShards)]
}

// GetAndCheck atomically loads state, runs the admission check, and
// persists the updated state. The shard lock is held across the whole
// read-check-write so concurrent callers cannot over-admit.
func (s *QuotaStore) GetAndCheck(ctx context.Context, quotaKey string, cfg ratelimit.Config, now time.Time) (ratelimit.CheckResult, error) {
	shard := s.getShard(quotaKey)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	state := shard.state[quotaKey]
	result, newState := ratelimit.Check(state, cfg, now)
	shard.state[quotaKey] = newState

	return result, nil
}

// Peek returns the current state for a quota key without consuming.
func (s *QuotaStore) Peek(ctx context.Context, quotaKey string) (ratelimit.WindowState, error) {
	shard := s.getShard(quotaKey)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return shard.state[quotaKey], nil
}

// sweepLoop periodically removes expired counters.
func (s *QuotaStore) sweepLoop() {
	for {
		select {
		case <-s.sweep.C:
			s.doSweep()
		case <-s.done:
			return
		}
	}
}

// doSweep drops counters whose window ended more than an hour ago.
func (s *QuotaStore) doSweep() {
	cutoff := s.clock.Now().Add(-time.Hour)

	for _, shard := range s.shards {
		shard.mu.Lock()
		for key, state := range shard.state {
			if ratelimit.Expired(state, cutoff) {
				delete(shard.state, key)
			}
		}
		shard.mu.Unlock()
	}
}

// Sweep runs one sweep pass immediately (for testing).
func (s *QuotaStore) Sweep() {
	s.doSweep()
}

// Close stops the sweep goroutine.
func (s *QuotaStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.sweep.Stop()
	})
	return nil
}

// Len returns the total number of tracked counters (for testing).
func (s *QuotaStore) Len() int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.state)
		shard.mu.RUnlock()
	}
	return total
}

// Ensure interface compliance.
var _ ports.QuotaStore = (*QuotaStore)(nil)
