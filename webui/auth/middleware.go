package auth

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ruserwation/core"
	"ruserwation/webui"
)

// Default limits for failed logins.
const (
	DefaultRateLimitAttempts = core.DefaultMaxAttempts
	DefaultRateLimitWindow   = core.DefaultRateLimitWindow
	DefaultRateLimitBlock    = 5 * time.Minute

	// FailedLoginDelay is slept after every rejected login.
	FailedLoginDelay = time.Second

	// LoginPath is where unauthenticated admin requests are sent.
	LoginPath = "/admin/login"
)

// Config tunes the HTTP side of authentication.
type Config struct {
	SecureCookies     bool
	RateLimitAttempts int
	RateLimitWindow   time.Duration
	RateLimitBlock    time.Duration
	FailedLoginDelay  time.Duration
}

// DefaultConfig returns the limits used in production.
func DefaultConfig() Config {
	return Config{
		RateLimitAttempts: DefaultRateLimitAttempts,
		RateLimitWindow:   DefaultRateLimitWindow,
		RateLimitBlock:    DefaultRateLimitBlock,
		FailedLoginDelay:  FailedLoginDelay,
	}
}

// Middleware guards the admin routes and serves login and logout. It
// implements webui.AuthProvider.
type Middleware struct {
	manager      *SessionManager
	rateLimiter  *webui.RateLimiter
	cookieConfig CookieConfig
	loginDelay   time.Duration
	logger       *zap.Logger
}

var _ webui.AuthProvider = (*Middleware)(nil)

// NewMiddleware wires a SessionManager to cookies and a per-IP rate limiter.
func NewMiddleware(manager *SessionManager, cfg Config, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FailedLoginDelay < 0 {
		cfg.FailedLoginDelay = 0
	}
	return &Middleware{
		manager:      manager,
		rateLimiter:  webui.NewRateLimiter(cfg.RateLimitAttempts, cfg.RateLimitWindow, cfg.RateLimitBlock, nil),
		cookieConfig: DefaultCookieConfig(manager.TTL(), cfg.SecureCookies),
		loginDelay:   cfg.FailedLoginDelay,
		logger:       logger,
	}
}

// Middleware redirects requests without a live session to the login page.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.CurrentUser(r); err != nil {
			m.logger.Debug("unauthenticated admin request",
				zap.String("path", r.URL.Path),
				zap.String("ip", getClientIP(r)),
				zap.Error(err))
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser resolves the session cookie to a username.
func (m *Middleware) CurrentUser(r *http.Request) (core.Username, error) {
	sessionID, err := ParseSessionCookie(r, m.cookieConfig)
	if err != nil {
		return "", core.ErrSessionNotFound
	}
	return m.manager.CurrentUser(r.Context(), sessionID)
}

// CheckRateLimit writes 429 with Retry-After and returns false when ip is blocked.
func (m *Middleware) CheckRateLimit(w http.ResponseWriter, ip string) bool {
	allowed, remaining := m.rateLimiter.Allow(ip)
	if allowed {
		return true
	}
	m.logger.Warn("login rate limit exceeded",
		zap.String("ip", ip),
		zap.Duration("remaining", remaining))
	w.Header().Set("Retry-After", formatRetryAfter(remaining))
	webui.WriteJSON(w, http.StatusTooManyRequests, webui.StatusResponse{
		Status:  "error",
		Message: "Too many failed login attempts",
	})
	return false
}

func (m *Middleware) recordFailure(ip string) {
	m.rateLimiter.RecordAttempt(ip)
	m.logger.Info("failed login recorded",
		zap.String("ip", ip),
		zap.Int("attempts", m.rateLimiter.AttemptCount(ip)))
}

// SweepRateLimits forgets addresses whose attempt window has closed.
func (m *Middleware) SweepRateLimits() int {
	return m.rateLimiter.Cleanup()
}

// delay waits out the failed-login delay unless ctx ends first.
func (m *Middleware) delay(ctx context.Context) {
	if m.loginDelay <= 0 {
		return
	}
	t := time.NewTimer(m.loginDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// getClientIP returns the request's remote host. Proxy headers are already
// folded into RemoteAddr by the router's RealIP middleware.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func formatRetryAfter(d time.Duration) string {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
