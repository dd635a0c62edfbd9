package sqlite

import (
	"context"
	"time"

	"github.com/roadsafety/roadguard/domain/usage"
	"github.com/roadsafety/roadguard/ports"
)

// UsageStore implements ports.UsageStore using SQLite.
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new SQLite usage store.
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// RecordBatch stores multiple usage records in one transaction.
func (s *UsageStore) RecordBatch(ctx context.Context, records []usage.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO api_usage (
			api_key, endpoint, method, status_code, latency_ms, ip_address, user_id, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		// Timestamps are stored in UTC for consistent querying.
		_, err := stmt.ExecContext(ctx,
			r.APIKey, r.Endpoint, r.Method, r.StatusCode, r.LatencyMs,
			nullString(r.IPAddress), nullInt64(r.UserID), r.Timestamp.UTC(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Stats returns aggregate usage over the trailing period, optionally
// filtered to one API key (empty = all traffic).
func (s *UsageStore) Stats(ctx context.Context, apiKey string, hours int, now time.Time) (usage.Stats, error) {
	since := now.Add(-time.Duration(hours) * time.Hour).UTC()

	query := `
		SELECT
			COUNT(*),
			COUNT(DISTINCT endpoint),
			COALESCE(AVG(latency_ms), 0),
			COALESCE(SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END), 0)
		FROM api_usage
		WHERE timestamp >= ?
	`
	args := []any{since}
	if apiKey != "" {
		query += ` AND api_key = ?`
		args = append(args, apiKey)
	}

	stats := usage.Stats{PeriodHours: hours}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalRequests,
		&stats.UniqueEndpoints,
		&stats.AvgLatencyMs,
		&stats.ErrorCount,
	)
	if err != nil {
		return usage.Stats{}, err
	}
	return stats, nil
}

// AccountStats returns the per-account usage report for an API key.
func (s *UsageStore) AccountStats(ctx context.Context, apiKey string, now time.Time) (usage.AccountStats, error) {
	nowUTC := now.UTC()
	hourStart := nowUTC.Truncate(time.Hour)
	dayStart := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)
	histStart := hourStart.Add(-23 * time.Hour)

	var out usage.AccountStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN timestamp >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN timestamp >= ? THEN 1 ELSE 0 END), 0),
			COUNT(*)
		FROM api_usage
		WHERE api_key = ?
	`, hourStart, dayStart, apiKey).Scan(&out.CurrentHour, &out.Today, &out.Total)
	if err != nil {
		return usage.AccountStats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d %H:00:00', timestamp), COUNT(*)
		FROM api_usage
		WHERE api_key = ? AND timestamp >= ?
		GROUP BY 1
		ORDER BY 1 ASC
	`, apiKey, histStart)
	if err != nil {
		return usage.AccountStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var hourStr string
		var count int64
		if err := rows.Scan(&hourStr, &count); err != nil {
			return usage.AccountStats{}, err
		}
		hour, err := time.ParseInLocation("2006-01-02 15:04:05", hourStr, time.UTC)
		if err != nil {
			return usage.AccountStats{}, err
		}
		out.Hourly = append(out.Hourly, usage.HourBucket{Hour: hour, Count: count})
	}
	if err := rows.Err(); err != nil {
		return usage.AccountStats{}, err
	}

	endpointRows, err := s.db.QueryContext(ctx, `
		SELECT endpoint, COUNT(*) as cnt
		FROM api_usage
		WHERE api_key = ?
		GROUP BY endpoint
		ORDER BY cnt DESC, endpoint ASC
		LIMIT 10
	`, apiKey)
	if err != nil {
		return usage.AccountStats{}, err
	}
	defer endpointRows.Close()

	for endpointRows.Next() {
		var ec usage.EndpointCount
		if err := endpointRows.Scan(&ec.Endpoint, &ec.Count); err != nil {
			return usage.AccountStats{}, err
		}
		out.TopEndpoints = append(out.TopEndpoints, ec)
	}
	return out, endpointRows.Err()
}

// Count returns total stored records.
func (s *UsageStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_usage`).Scan(&count)
	return count, err
}

// Cleanup removes records older than the cutoff and reports how many
// were deleted.
func (s *UsageStore) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM api_usage WHERE timestamp < ?
	`, olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ensure interface compliance.
var _ ports.UsageStore = (*UsageStore)(nil)
