package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ruserwation/core"
	"ruserwation/webui"
)

func newTestMiddleware(t *testing.T) *Middleware {
	t.Helper()
	m := newTestManager(t).m
	cfg := DefaultConfig()
	cfg.FailedLoginDelay = 0
	cfg.RateLimitAttempts = 3
	return NewMiddleware(m, cfg, zap.NewNop())
}

func jsonLogin(username, password string) *http.Request {
	body, _ := json.Marshal(loginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:54321"
	return req
}

func formLogin(username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.20:54321"
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("response did not set a session cookie")
	return nil
}

func TestLoginHandler_GET(t *testing.T) {
	mw := newTestMiddleware(t)
	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, httptest.NewRequest(http.MethodGet, "/admin/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Error("login form not rendered")
	}
}

func TestLoginHandler_JSONSuccess(t *testing.T) {
	mw := newTestMiddleware(t)
	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, jsonLogin("admin", "right-pw"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp webui.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Status != "ok" {
		t.Errorf("body = %s", rec.Body.String())
	}
	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie attributes = %+v", cookie)
	}
}

func TestLoginHandler_JSONFailure(t *testing.T) {
	mw := newTestMiddleware(t)
	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, jsonLogin("admin", "wrong-pw"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("Warning") == "" {
		t.Error("missing Warning header")
	}
	var resp webui.StatusResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "error" || resp.Message != "Invalid credentials" {
		t.Errorf("body = %+v", resp)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			t.Error("failed login set a session cookie")
		}
	}
}

func TestLoginHandler_UnknownUserMatchesWrongPassword(t *testing.T) {
	mw := newTestMiddleware(t)

	wrong := httptest.NewRecorder()
	mw.LoginHandler()(wrong, jsonLogin("admin", "wrong-pw"))
	unknown := httptest.NewRecorder()
	mw.LoginHandler()(unknown, jsonLogin("ghost", "right-pw"))

	if wrong.Code != unknown.Code || wrong.Body.String() != unknown.Body.String() {
		t.Errorf("responses differ: %d %q vs %d %q",
			wrong.Code, wrong.Body.String(), unknown.Code, unknown.Body.String())
	}
}

func TestLoginHandler_MalformedJSON(t *testing.T) {
	mw := newTestMiddleware(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginHandler_FormSuccessRedirects(t *testing.T) {
	mw := newTestMiddleware(t)
	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, formLogin("admin", "right-pw"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != LoginPath {
		t.Errorf("Location = %q, want %q", loc, LoginPath)
	}
	sessionCookie(t, rec)
}

func TestLoginHandler_FormFailureRerendersForm(t *testing.T) {
	mw := newTestMiddleware(t)
	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, formLogin("admin", "nope"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid credentials") {
		t.Error("error message not shown on the form")
	}
}

func TestLoginHandler_GETWithSessionSaysLoggedIn(t *testing.T) {
	mw := newTestMiddleware(t)
	login := httptest.NewRecorder()
	mw.LoginHandler()(login, jsonLogin("admin", "right-pw"))

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req.AddCookie(sessionCookie(t, login))
	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Logged in already") {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestLoginHandler_RateLimited(t *testing.T) {
	mw := newTestMiddleware(t)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		mw.LoginHandler()(rec, jsonLogin("admin", "wrong-pw"))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, jsonLogin("admin", "right-pw"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// A different client is unaffected.
	other := httptest.NewRecorder()
	mw.LoginHandler()(other, formLogin("admin", "right-pw"))
	if other.Code != http.StatusSeeOther {
		t.Errorf("other client status = %d, want 303", other.Code)
	}
}

func TestSweepRateLimits_KeepsOpenWindows(t *testing.T) {
	mw := newTestMiddleware(t)
	mw.LoginHandler()(httptest.NewRecorder(), jsonLogin("admin", "wrong-pw"))

	if removed := mw.SweepRateLimits(); removed != 0 {
		t.Errorf("SweepRateLimits() = %d, want 0 inside the window", removed)
	}
	if mw.rateLimiter.Count() != 1 {
		t.Errorf("tracked addresses = %d, want 1", mw.rateLimiter.Count())
	}
}

func TestLoginHandler_StoreFailure(t *testing.T) {
	admins := newFakeAdmins()
	admins.addAdmin(t, 1, "admin", "right-pw")
	manager := NewSessionManager(NewCredentialVerifier(admins, nil), &stubStore{createErr: errBackend}, nil)
	mw := NewMiddleware(manager, Config{}, nil)

	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, jsonLogin("admin", "right-pw"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestLoginHandler_MethodNotAllowed(t *testing.T) {
	mw := newTestMiddleware(t)
	rec := httptest.NewRecorder()
	mw.LoginHandler()(rec, httptest.NewRequest(http.MethodDelete, "/admin/login", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestLogoutHandler(t *testing.T) {
	mw := newTestMiddleware(t)
	login := httptest.NewRecorder()
	mw.LoginHandler()(login, jsonLogin("admin", "right-pw"))
	cookie := sessionCookie(t, login)

	req := httptest.NewRequest(http.MethodGet, "/admin/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mw.LogoutHandler()(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Logged out") {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if cleared := sessionCookie(t, rec); cleared.MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", cleared)
	}

	check := httptest.NewRequest(http.MethodGet, "/admin", nil)
	check.AddCookie(cookie)
	if _, err := mw.CurrentUser(check); err == nil {
		t.Error("session still valid after logout")
	}
}

func TestLogoutHandler_NoSession(t *testing.T) {
	mw := newTestMiddleware(t)
	rec := httptest.NewRecorder()
	mw.LogoutHandler()(rec, httptest.NewRequest(http.MethodGet, "/admin/logout", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No active session") {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestMiddleware_RedirectsWithoutSession(t *testing.T) {
	mw := newTestMiddleware(t)
	called := false
	h := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	h.ServeHTTP(rec, req)

	if called {
		t.Error("protected handler ran without a session")
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != LoginPath {
		t.Errorf("status = %d, Location = %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestMiddleware_PassesWithSession(t *testing.T) {
	mw := newTestMiddleware(t)
	login := httptest.NewRecorder()
	mw.LoginHandler()(login, jsonLogin("admin", "right-pw"))

	var user core.Username
	h := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ = mw.CurrentUser(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(sessionCookie(t, login))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || user != "admin" {
		t.Errorf("status = %d, user = %q", rec.Code, user)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct{ remote, want string }{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := getClientIP(req); got != tt.want {
			t.Errorf("getClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
