package core

import (
	"time"
)

// DefaultRateLimitWindow is the default window for counting failed logins.
const DefaultRateLimitWindow = 15 * time.Minute

// DefaultMaxAttempts is the number of failed logins tolerated per window.
const DefaultMaxAttempts = 5

// AttemptRecord counts failed login attempts for one client address.
type AttemptRecord struct {
	Count   int
	ResetAt time.Time
}

// NewAttemptRecordAt starts a record with one attempt whose window opens at now.
func NewAttemptRecordAt(now time.Time, window time.Duration) AttemptRecord {
	return AttemptRecord{
		Count:   1,
		ResetAt: now.Add(window),
	}
}

// ShouldResetAt reports whether the record's window has closed.
func (a AttemptRecord) ShouldResetAt(now time.Time) bool {
	return now.After(a.ResetAt)
}

// IsBlocked reports whether the attempt count has reached maxAttempts.
func (a AttemptRecord) IsBlocked(maxAttempts int) bool {
	return a.Count >= maxAttempts
}

// RemainingAt returns how long until the record resets, never negative.
func (a AttemptRecord) RemainingAt(now time.Time) time.Duration {
	remaining := a.ResetAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IncrementAt returns the record with one more attempt, or a fresh record
// if the old window already closed.
func (a AttemptRecord) IncrementAt(now time.Time, window time.Duration) AttemptRecord {
	if a.ShouldResetAt(now) {
		return NewAttemptRecordAt(now, window)
	}
	return AttemptRecord{
		Count:   a.Count + 1,
		ResetAt: a.ResetAt,
	}
}
