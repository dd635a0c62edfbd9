// Package usage provides usage record types and pure aggregation helpers.
package usage

import "time"

// AnonymousKey is recorded when a request carried no credential.
const AnonymousKey = "anonymous"

// Record is a single accounted request (immutable value type).
type Record struct {
	APIKey     string
	Endpoint   string
	Method     string
	StatusCode int
	LatencyMs  int64
	IPAddress  string
	UserID     int64 // 0 = no account attached
	Timestamp  time.Time
}

// NewRecord builds a record, substituting AnonymousKey for empty keys.
func NewRecord(apiKey, endpoint, method string, status int, latencyMs int64, ip string, userID int64, at time.Time) Record {
	if apiKey == "" {
		apiKey = AnonymousKey
	}
	return Record{
		APIKey:     apiKey,
		Endpoint:   endpoint,
		Method:     method,
		StatusCode: status,
		LatencyMs:  latencyMs,
		IPAddress:  ip,
		UserID:     userID,
		Timestamp:  at,
	}
}

// IsError reports whether the record represents a failed request.
func (r Record) IsError() bool {
	return r.StatusCode >= 400
}

// Stats is an aggregate over a query period (value type).
type Stats struct {
	TotalRequests   int64
	UniqueEndpoints int64
	AvgLatencyMs    float64
	ErrorCount      int64
	PeriodHours     int
}

// HourBucket is one hour of an account's request history.
type HourBucket struct {
	Hour  time.Time
	Count int64
}

// EndpointCount ranks an endpoint by request volume.
type EndpointCount struct {
	Endpoint string
	Count    int64
}

// AccountStats is the per-account usage report.
type AccountStats struct {
	CurrentHour int64
	Today       int64
	Total       int64
	Hourly      []HourBucket
	TopEndpoints []EndpointCount
}

// Aggregate computes Stats over a slice of records.
// This is a PURE function, used by in-memory stores and tests; the SQLite
// store computes the same shape in SQL.
func Aggregate(records []Record, periodHours int) Stats {
	s := Stats{PeriodHours: periodHours}
	if len(records) == 0 {
		return s
	}

	endpoints := make(map[string]struct{})
	var latencySum int64
	for _, r := range records {
		s.TotalRequests++
		endpoints[r.Endpoint] = struct{}{}
		latencySum += r.LatencyMs
		if r.IsError() {
			s.ErrorCount++
		}
	}
	s.UniqueEndpoints = int64(len(endpoints))
	s.AvgLatencyMs = float64(latencySum) / float64(s.TotalRequests)
	return s
}
