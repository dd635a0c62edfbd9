// Package ratelimit provides the pure fixed-window admission algorithm.
// All functions are deterministic - same input always produces same output.
package ratelimit

import "time"

// WindowState represents one counter's current window (value type).
type WindowState struct {
	Count   int       // Requests admitted in the current window
	ResetAt time.Time // When the current window expires
}

// CheckResult represents the outcome of an admission check (value type).
type CheckResult struct {
	Allowed   bool
	Remaining int       // Requests left in the window after this one
	ResetAt   time.Time // When the counter resets
	Reason    string    // Set when not allowed
}

// Config holds the window parameters (value type).
type Config struct {
	Limit  int           // Requests per window; Unlimited disables the ceiling
	Window time.Duration // Window duration
}

// Unlimited disables the request ceiling when used as Config.Limit.
const Unlimited = -1

// Reasons for denial.
const (
	ReasonLimitExceeded = "rate_limit_exceeded"
)

// Check performs a fixed-window admission check.
// This is a PURE function - no side effects.
//
// A window that has expired is reset before counting; the new deadline is
// now + window, matching counters that start on first use rather than on
// wall-clock boundaries.
//
// Returns the result and the updated state (caller must persist it).
func Check(state WindowState, cfg Config, now time.Time) (CheckResult, WindowState) {
	if now.After(state.ResetAt) || state.ResetAt.IsZero() {
		state = WindowState{
			Count:   0,
			ResetAt: now.Add(cfg.Window),
		}
	}

	if cfg.Limit == Unlimited {
		state.Count++
		return CheckResult{
			Allowed:   true,
			Remaining: Unlimited,
			ResetAt:   state.ResetAt,
		}, state
	}

	if state.Count >= cfg.Limit {
		return CheckResult{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   state.ResetAt,
			Reason:    ReasonLimitExceeded,
		}, state
	}

	state.Count++
	return CheckResult{
		Allowed:   true,
		Remaining: cfg.Limit - state.Count,
		ResetAt:   state.ResetAt,
	}, state
}

// RetryAfter returns how long to wait before retrying a denied request.
// This is a PURE function.
func RetryAfter(result CheckResult, now time.Time) time.Duration {
	if result.Allowed {
		return 0
	}
	delay := result.ResetAt.Sub(now)
	if delay < 0 {
		return 0
	}
	return delay
}

// Expired reports whether a stored state belongs to a window that ended
// before the cutoff. Used by store sweeps.
func Expired(state WindowState, cutoff time.Time) bool {
	return !state.ResetAt.IsZero() && state.ResetAt.Before(cutoff)
}
