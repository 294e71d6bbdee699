package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ruserwation/core"
)

// ErrInvalidCredentials is returned for an unknown user and for a wrong
// password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// SessionCreationError reports that credentials were valid but the session
// store could not record the session.
type SessionCreationError struct {
	Reason string
	Err    error
}

func (e *SessionCreationError) Error() string {
	return "failed to create session: " + e.Reason
}

func (e *SessionCreationError) Unwrap() error { return e.Err }

// Authenticator is satisfied by *CredentialVerifier.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*core.Admin, error)
}

// LoginRecorder is told about each successful login. It must not block.
type LoginRecorder func(admin *core.Admin, at time.Time)

// SessionManager ties credential checks to the session store.
type SessionManager struct {
	auth     Authenticator
	store    core.SessionStore
	ttl      time.Duration
	logger   *zap.Logger
	now      core.Clock
	recorder LoginRecorder
}

// ManagerOption customises a SessionManager.
type ManagerOption func(*SessionManager)

// WithSessionTTL overrides core.DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) ManagerOption {
	return func(m *SessionManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithLoginRecorder(rec LoginRecorder) ManagerOption {
	return func(m *SessionManager) { m.recorder = rec }
}

func WithManagerClock(clock core.Clock) ManagerOption {
	return func(m *SessionManager) { m.now = clock }
}

// NewSessionManager creates a manager over an injected store.
func NewSessionManager(auth Authenticator, store core.SessionStore, logger *zap.Logger, opts ...ManagerOption) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SessionManager{
		auth:   auth,
		store:  store,
		ttl:    core.DefaultSessionTTL,
		logger: logger,
		now:    core.SystemClock,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the lifetime given to new sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Login checks the credentials and opens a session, returning its id.
func (m *SessionManager) Login(ctx context.Context, username, password string) (string, error) {
	admin, err := m.auth.Authenticate(ctx, username, password)
	if errors.Is(err, ErrInvalidCredentials) {
		m.logger.Info("login rejected", zap.String("username", username))
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to verify credentials: %w", err)
	}

	id, err := m.store.Create(ctx, admin.Username, m.ttl)
	if err != nil {
		m.logger.Error("session store rejected new session",
			zap.String("username", admin.Username),
			zap.Error(err))
		return "", &SessionCreationError{Reason: err.Error(), Err: err}
	}

	m.logger.Info("admin logged in",
		zap.String("username", admin.Username),
		zap.String("session_id", core.ShortID(id)))
	if m.recorder != nil {
		m.recorder(admin, m.now())
	}
	return id, nil
}

// Logout destroys the session. Store failures are logged and swallowed.
func (m *SessionManager) Logout(ctx context.Context, sessionID string) {
	if err := m.store.Destroy(ctx, sessionID); err != nil {
		m.logger.Warn("failed to destroy session",
			zap.String("session_id", core.ShortID(sessionID)),
			zap.Error(err))
		return
	}
	m.logger.Info("admin logged out", zap.String("session_id", core.ShortID(sessionID)))
}

// CurrentUser returns the username bound to sessionID. An expired session is
// reported as core.ErrSessionNotFound after being logged.
func (m *SessionManager) CurrentUser(ctx context.Context, sessionID string) (core.Username, error) {
	session, err := m.store.Get(ctx, sessionID)
	switch {
	case errors.Is(err, core.ErrSessionExpired):
		m.logger.Info("session expired", zap.String("session_id", core.ShortID(sessionID)))
		return "", core.ErrSessionNotFound
	case errors.Is(err, core.ErrSessionNotFound):
		return "", core.ErrSessionNotFound
	case err != nil:
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	if session.Username == "" {
		m.logger.Panic("session has no username", zap.String("session_id", core.ShortID(sessionID)))
	}
	return core.Username(session.Username), nil
}
