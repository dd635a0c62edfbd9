package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roadsafety/roadguard/domain/usage"
	"github.com/roadsafety/roadguard/ports"
)

// UsageStore is an in-memory implementation of ports.UsageStore.
type UsageStore struct {
	mu      sync.RWMutex
	records []usage.Record
}

// NewUsageStore creates a new in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{}
}

// RecordBatch stores multiple usage records.
func (s *UsageStore) RecordBatch(ctx context.Context, records []usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Stats returns aggregate usage over the trailing period, optionally
// filtered to one API key.
func (s *UsageStore) Stats(ctx context.Context, apiKey string, hours int, now time.Time) (usage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := now.Add(-time.Duration(hours) * time.Hour)
	var matched []usage.Record
	for _, r := range s.records {
		if r.Timestamp.Before(since) {
			continue
		}
		if apiKey != "" && r.APIKey != apiKey {
			continue
		}
		matched = append(matched, r)
	}
	return usage.Aggregate(matched, hours), nil
}

// AccountStats returns the per-account usage report for an API key.
func (s *UsageStore) AccountStats(ctx context.Context, apiKey string, now time.Time) (usage.AccountStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hourStart := now.Truncate(time.Hour)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	histStart := hourStart.Add(-23 * time.Hour)

	var out usage.AccountStats
	hourly := make(map[time.Time]int64)
	endpoints := make(map[string]int64)

	for _, r := range s.records {
		if r.APIKey != apiKey {
			continue
		}
		out.Total++
		if !r.Timestamp.Before(hourStart) {
			out.CurrentHour++
		}
		if !r.Timestamp.Before(dayStart) {
			out.Today++
		}
		if !r.Timestamp.Before(histStart) {
			hourly[r.Timestamp.Truncate(time.Hour)]++
		}
		endpoints[r.Endpoint]++
	}

	for hour, count := range hourly {
		out.Hourly = append(out.Hourly, usage.HourBucket{Hour: hour, Count: count})
	}
	sort.Slice(out.Hourly, func(i, j int) bool {
		return out.Hourly[i].Hour.Before(out.Hourly[j].Hour)
	})

	for endpoint, count := range endpoints {
		out.TopEndpoints = append(out.TopEndpoints, usage.EndpointCount{Endpoint: endpoint, Count: count})
	}
	sort.Slice(out.TopEndpoints, func(i, j int) bool {
		if out.TopEndpoints[i].Count != out.TopEndpoints[j].Count {
			return out.TopEndpoints[i].Count > out.TopEndpoints[j].Count
		}
		return out.TopEndpoints[i].Endpoint < out.TopEndpoints[j].Endpoint
	})
	if len(out.TopEndpoints) > 10 {
		out.TopEndpoints = out.TopEndpoints[:10]
	}

	return out, nil
}

// Count returns total stored records.
func (s *UsageStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// All returns a copy of every record (for testing).
func (s *UsageStore) All() []usage.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]usage.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Clear removes all records (for testing).
func (s *UsageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// Ensure interface compliance.
var _ ports.UsageStore = (*UsageStore)(nil)
