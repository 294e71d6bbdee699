// Package auth authenticates the restaurant admin: password hashing,
// credential verification, sessions, cookies and the login/logout handlers.
package auth

import (
	"errors"
	"net/http"
	"time"
)

const (
	// SessionCookieName carries the session id.
	SessionCookieName = "session_id"

	// DefaultCookiePath scopes the cookie to the whole site.
	DefaultCookiePath = "/"
)

// ErrNoCookie is returned when the request carries no session cookie.
var ErrNoCookie = errors.New("cookie not found")

// ErrEmptySessionID is returned when a cookie would be built around an empty id.
var ErrEmptySessionID = errors.New("session ID cannot be empty")

// CookieConfig holds the attributes of the session cookie.
type CookieConfig struct {
	Name string

	// MaxAge is the cookie lifetime in seconds. It tracks the session TTL so
	// the browser drops the cookie when the server forgets the session.
	MaxAge int

	// Secure is set when running with APP_ENV=prod.
	Secure bool

	SameSite http.SameSite
	Path     string
}

// DefaultCookieConfig returns an HttpOnly, SameSite=Strict cookie config whose
// lifetime matches ttl.
func DefaultCookieConfig(ttl time.Duration, secure bool) CookieConfig {
	return CookieConfig{
		Name:     SessionCookieName,
		MaxAge:   DurationToSeconds(ttl),
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     DefaultCookiePath,
	}
}

// NewSessionCookie builds the cookie that carries sessionID.
func NewSessionCookie(sessionID string, cfg CookieConfig) (*http.Cookie, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	return &http.Cookie{
		Name:     cfg.name(),
		Value:    sessionID,
		Path:     cfg.path(),
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}, nil
}

// ParseSessionCookie returns the session id from the request, or ErrNoCookie.
// An empty value counts as missing.
func ParseSessionCookie(r *http.Request, cfg CookieConfig) (string, error) {
	cookie, err := r.Cookie(cfg.name())
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNoCookie
		}
		return "", err
	}
	if cookie.Value == "" {
		return "", ErrNoCookie
	}
	return cookie.Value, nil
}

// ClearSessionCookie returns a cookie that makes the browser delete the
// session cookie.
func ClearSessionCookie(cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.name(),
		Value:    "",
		Path:     cfg.path(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}
}

// DurationToSeconds converts a TTL to a cookie MaxAge, rounding down.
func DurationToSeconds(d time.Duration) int {
	return int(d / time.Second)
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return SessionCookieName
	}
	return c.Name
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return DefaultCookiePath
	}
	return c.Path
}
