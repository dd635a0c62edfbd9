package sqlite

import (
	"context"
	"database/sql"

	"github.com/roadsafety/roadguard/ports"
)

// defaultAccidentLimit caps unpaginated list queries.
const defaultAccidentLimit = 100

// maxAccidentLimit is the hard ceiling regardless of what the caller asks for.
const maxAccidentLimit = 1000

// AccidentStore implements ports.AccidentStore using SQLite.
type AccidentStore struct {
	db *DB
}

// NewAccidentStore creates a new SQLite accident store.
func NewAccidentStore(db *DB) *AccidentStore {
	return &AccidentStore{db: db}
}

// List returns accidents matching the filter, newest first.
func (s *AccidentStore) List(ctx context.Context, f ports.AccidentFilter) ([]ports.Accident, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultAccidentLimit
	}
	if limit > maxAccidentLimit {
		limit = maxAccidentLimit
	}

	query := `
		SELECT id, severity, year, date, latitude, longitude, vehicles, casualties, road_type, weather
		FROM accidents
		WHERE 1=1
	`
	var args []any
	if f.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, f.Severity)
	}
	if f.Year != 0 {
		query += ` AND year = ?`
		args = append(args, f.Year)
	}
	query += ` ORDER BY date DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accidents []ports.Accident
	for rows.Next() {
		var a ports.Accident
		var date sql.NullTime
		err := rows.Scan(
			&a.ID, &a.Severity, &a.Year, &date, &a.Latitude, &a.Longitude,
			&a.Vehicles, &a.Casualties, &a.RoadType, &a.Weather,
		)
		if err != nil {
			return nil, err
		}
		if date.Valid {
			a.Date = date.Time
		}
		accidents = append(accidents, a)
	}
	return accidents, rows.Err()
}

// Stats returns dataset-wide aggregates.
func (s *AccidentStore) Stats(ctx context.Context) (ports.AccidentStats, error) {
	var stats ports.AccidentStats

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accidents`).Scan(&stats.Total)
	if err != nil {
		return ports.AccidentStats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, COUNT(*)
		FROM accidents
		GROUP BY severity
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return ports.AccidentStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var sc ports.SeverityCount
		if err := rows.Scan(&sc.Severity, &sc.Count); err != nil {
			return ports.AccidentStats{}, err
		}
		stats.BySeverity = append(stats.BySeverity, sc)
	}
	if err := rows.Err(); err != nil {
		return ports.AccidentStats{}, err
	}

	yearRows, err := s.db.QueryContext(ctx, `
		SELECT year, COUNT(*)
		FROM accidents
		GROUP BY year
		ORDER BY year ASC
	`)
	if err != nil {
		return ports.AccidentStats{}, err
	}
	defer yearRows.Close()
	for yearRows.Next() {
		var yc ports.YearCount
		if err := yearRows.Scan(&yc.Year, &yc.Count); err != nil {
			return ports.AccidentStats{}, err
		}
		stats.ByYear = append(stats.ByYear, yc)
	}
	return stats, yearRows.Err()
}

// Count returns total dataset size.
func (s *AccidentStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accidents`).Scan(&count)
	return count, err
}

// Insert adds one accident row (used by data import and tests).
func (s *AccidentStore) Insert(ctx context.Context, a ports.Accident) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO accidents (severity, year, date, latitude, longitude, vehicles, casualties, road_type, weather)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.Severity, a.Year, a.Date, a.Latitude, a.Longitude, a.Vehicles, a.Casualties, a.RoadType, a.Weather)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Ensure interface compliance.
var _ ports.AccidentStore = (*AccidentStore)(nil)
