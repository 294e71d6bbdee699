package webui

import (
	"sync"
	"time"

	"ruserwation/core"
)

// RateLimiter counts failed admin logins per client address.
//
// Each failure increments the address's core.AttemptRecord. Once the count
// reaches maxAttempts the address is blocked until blockDuration after the
// last counted failure. A successful login clears the record.
type RateLimiter struct {
	mu            sync.Mutex
	attempts      map[string]core.AttemptRecord
	maxAttempts   int
	window        time.Duration
	blockDuration time.Duration
	now           core.Clock
}

// NewRateLimiter creates a limiter. A nil clock uses time.Now.
func NewRateLimiter(maxAttempts int, window, blockDuration time.Duration, clock core.Clock) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = core.DefaultMaxAttempts
	}
	if window <= 0 {
		window = core.DefaultRateLimitWindow
	}
	if blockDuration <= 0 {
		blockDuration = window
	}
	if clock == nil {
		clock = core.SystemClock
	}
	return &RateLimiter{
		attempts:      make(map[string]core.AttemptRecord),
		maxAttempts:   maxAttempts,
		window:        window,
		blockDuration: blockDuration,
		now:           clock,
	}
}

// Allow reports whether ip may try to log in, and if not, how long it must wait.
func (r *RateLimiter) Allow(ip string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	record, ok := r.attempts[ip]
	if !ok || record.ShouldResetAt(now) {
		return true, 0
	}
	if record.IsBlocked(r.maxAttempts) {
		return false, record.RemainingAt(now)
	}
	return true, 0
}

// RecordAttempt counts one failed login from ip.
func (r *RateLimiter) RecordAttempt(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	record, ok := r.attempts[ip]
	if !ok {
		record = core.NewAttemptRecordAt(now, r.window)
	} else {
		record = record.IncrementAt(now, r.window)
	}

	if record.Count == r.maxAttempts {
		record.ResetAt = now.Add(r.blockDuration)
	}
	r.attempts[ip] = record
}

// Reset forgets ip's failures.
func (r *RateLimiter) Reset(ip string) {
	r.mu.Lock()
	delete(r.attempts, ip)
	r.mu.Unlock()
}

// AttemptCount returns the failures counted for ip in its current window.
func (r *RateLimiter) AttemptCount(ip string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.attempts[ip]
	if !ok || record.ShouldResetAt(r.now()) {
		return 0
	}
	return record.Count
}

// Cleanup drops records whose window has closed and returns how many went.
func (r *RateLimiter) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for ip, record := range r.attempts {
		if record.ShouldResetAt(now) {
			delete(r.attempts, ip)
			removed++
		}
	}
	return removed
}

// Count returns the number of tracked addresses.
func (r *RateLimiter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}
