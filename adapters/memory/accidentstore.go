package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/roadsafety/roadguard/ports"
)

// AccidentStore is an in-memory accident dataset for tests and demos.
type AccidentStore struct {
	mu        sync.RWMutex
	accidents []ports.Accident
}

var _ ports.AccidentStore = (*AccidentStore)(nil)

// NewAccidentStore creates an empty in-memory accident store.
func NewAccidentStore() *AccidentStore {
	return &AccidentStore{}
}

// Insert adds a record to the dataset.
func (s *AccidentStore) Insert(a ports.Accident) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = int64(len(s.accidents) + 1)
	}
	s.accidents = append(s.accidents, a)
}

// List returns accidents matching the filter, newest first.
func (s *AccidentStore) List(ctx context.Context, f ports.AccidentFilter) ([]ports.Accident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	} else if limit > 1000 {
		limit = 1000
	}

	out := make([]ports.Accident, 0)
	for _, a := range s.accidents {
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if f.Year != 0 && a.Year != f.Year {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats returns dataset-wide aggregates.
func (s *AccidentStore) Stats(ctx context.Context) (ports.AccidentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySeverity := make(map[string]int64)
	byYear := make(map[int]int64)
	for _, a := range s.accidents {
		bySeverity[a.Severity]++
		byYear[a.Year]++
	}

	stats := ports.AccidentStats{Total: int64(len(s.accidents))}
	for sev, n := range bySeverity {
		stats.BySeverity = append(stats.BySeverity, ports.SeverityCount{Severity: sev, Count: n})
	}
	sort.Slice(stats.BySeverity, func(i, j int) bool {
		if stats.BySeverity[i].Count != stats.BySeverity[j].Count {
			return stats.BySeverity[i].Count > stats.BySeverity[j].Count
		}
		return stats.BySeverity[i].Severity < stats.BySeverity[j].Severity
	})
	for year, n := range byYear {
		stats.ByYear = append(stats.ByYear, ports.YearCount{Year: year, Count: n})
	}
	sort.Slice(stats.ByYear, func(i, j int) bool {
		return stats.ByYear[i].Year < stats.ByYear[j].Year
	})
	return stats, nil
}

// Count returns total dataset size.
func (s *AccidentStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.accidents)), nil
}
