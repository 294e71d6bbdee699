// Package webui serves the public restaurant pages, the admin area and the
// reservation endpoint.
package webui

import (
	"context"
	"sync"
	"time"

	"ruserwation/core"
)

// MemorySessionStore keeps sessions in a map guarded by one mutex.
//
// Expired sessions are removed lazily: the first Get that observes an expired
// entry deletes it and reports core.ErrSessionExpired. Nothing sweeps the map
// in the background.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]core.Session
	now      core.Clock
}

var _ core.SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty store. A nil clock uses time.Now.
func NewMemorySessionStore(clock core.Clock) *MemorySessionStore {
	if clock == nil {
		clock = core.SystemClock
	}
	return &MemorySessionStore{
		sessions: make(map[string]core.Session),
		now:      clock,
	}
}

// Create stores a new session for username that expires ttl from now and
// returns its id.
func (s *MemorySessionStore) Create(ctx context.Context, username string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := core.GenerateSessionID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[id] = core.NewSession(id, username, s.now(), ttl)
	s.mu.Unlock()
	return id, nil
}

// Get returns a copy of the session, evicting it if it has expired.
func (s *MemorySessionStore) Get(ctx context.Context, id string) (core.Session, error) {
	if err := ctx.Err(); err != nil {
		return core.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return core.Session{}, core.ErrSessionNotFound
	}
	if session.IsExpiredAt(s.now()) {
		delete(s.sessions, id)
		return core.Session{}, core.ErrSessionExpired
	}
	return session, nil
}

// Destroy removes a session. Unknown ids are ignored.
func (s *MemorySessionStore) Destroy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Cleanup removes every expired session and returns how many were dropped.
// The server never calls it.
func (s *MemorySessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, session := range s.sessions {
		if session.IsExpiredAt(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of stored sessions, expired ones included.
func (s *MemorySessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
