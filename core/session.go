package core

import (
	"context"
	"errors"
	"time"
)

// DefaultSessionTTL is how long an admin session stays valid after login.
const DefaultSessionTTL = 12 * time.Hour

var (
	// ErrSessionNotFound is returned when no session exists for an id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned by a store the first time it observes an
	// expired session. The session has already been removed when this is returned.
	ErrSessionExpired = errors.New("session expired")
)

// Session binds an opaque identifier to an authenticated admin for a bounded time.
// Sessions are never mutated after creation.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession builds a session for username that expires ttl after now.
func NewSession(id, username string, now time.Time, ttl time.Duration) Session {
	return Session{
		ID:        id,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpiredAt reports whether the session is past its expiry at the given instant.
// A session is still valid at exactly ExpiresAt.
func (s Session) IsExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SessionStore holds live sessions keyed by id.
//
// Implementations must be safe for concurrent use. Get evicts an expired
// session as a side effect of the read and reports ErrSessionExpired; there is
// no background sweep. Destroy of an unknown id is a no-op. Create sets
// ExpiresAt to now + ttl as given; callers choose the default.
type SessionStore interface {
	Create(ctx context.Context, username string, ttl time.Duration) (string, error)
	Get(ctx context.Context, id string) (Session, error)
	Destroy(ctx context.Context, id string) error
}

// Clock returns the current time. Stores and codecs accept one so tests can
// move time without sleeping.
type Clock func() time.Time

// SystemClock is the Clock backed by time.Now.
func SystemClock() time.Time {
	return time.Now()
}
