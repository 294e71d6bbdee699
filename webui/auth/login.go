package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"ruserwation/webui"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgLoginUnavailable   = "Login is temporarily unavailable"
	maxLoginBody          = 4 << 10
)

// loginRequest is the JSON login body. Form posts use the same field names.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler serves GET and POST /admin/login.
func (m *Middleware) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			m.loginGET(w, r)
		case http.MethodPost:
			m.loginPOST(w, r)
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (m *Middleware) loginGET(w http.ResponseWriter, r *http.Request) {
	if username, err := m.CurrentUser(r); err == nil {
		webui.RenderMessagePage(w, http.StatusOK, "Logged in already",
			"You are signed in as "+username.String()+".",
			webui.Link{Href: "/admin", Label: "Dashboard"},
			webui.Link{Href: "/admin/logout", Label: "Log out"})
		return
	}
	webui.RenderLoginPage(w, http.StatusOK, "")
}

func (m *Middleware) loginPOST(w http.ResponseWriter, r *http.Request) {
	clientIP := getClientIP(r)
	if !m.CheckRateLimit(w, clientIP) {
		return
	}

	asJSON := isJSON(r)
	creds, err := readCredentials(w, r, asJSON)
	if err != nil {
		m.logger.Debug("unreadable login body", zap.String("ip", clientIP), zap.Error(err))
		m.rejectLogin(w, r, clientIP, asJSON)
		return
	}

	sessionID, err := m.manager.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		var sce *SessionCreationError
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			m.rejectLogin(w, r, clientIP, asJSON)
		case errors.As(err, &sce):
			m.loginUnavailable(w, asJSON)
		default:
			m.logger.Error("login failed", zap.String("ip", clientIP), zap.Error(err))
			m.loginUnavailable(w, asJSON)
		}
		return
	}

	cookie, err := NewSessionCookie(sessionID, m.cookieConfig)
	if err != nil {
		m.logger.Error("failed to build session cookie", zap.Error(err))
		m.loginUnavailable(w, asJSON)
		return
	}
	m.rateLimiter.Reset(clientIP)
	http.SetCookie(w, cookie)

	if asJSON {
		webui.WriteJSON(w, http.StatusOK, webui.StatusResponse{Status: "ok"})
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// rejectLogin counts the failure, waits out the delay and answers 401.
func (m *Middleware) rejectLogin(w http.ResponseWriter, r *http.Request, ip string, asJSON bool) {
	m.recordFailure(ip)
	m.delay(r.Context())

	if asJSON {
		w.Header().Set("Warning", `199 ruserwation "`+msgInvalidCredentials+`"`)
		webui.WriteJSON(w, http.StatusUnauthorized, webui.StatusResponse{
			Status:  "error",
			Message: msgInvalidCredentials,
		})
		return
	}
	webui.RenderLoginPage(w, http.StatusUnauthorized, msgInvalidCredentials)
}

func (m *Middleware) loginUnavailable(w http.ResponseWriter, asJSON bool) {
	if asJSON {
		webui.WriteJSON(w, http.StatusInternalServerError, webui.StatusResponse{
			Status:  "error",
			Message: msgLoginUnavailable,
		})
		return
	}
	webui.RenderMessagePage(w, http.StatusInternalServerError, "Login failed", msgLoginUnavailable,
		webui.Link{Href: LoginPath, Label: "Try again"})
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func readCredentials(w http.ResponseWriter, r *http.Request, asJSON bool) (loginRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
	var creds loginRequest
	if asJSON {
		err := json.NewDecoder(r.Body).Decode(&creds)
		return creds, err
	}
	if err := r.ParseForm(); err != nil {
		return creds, err
	}
	creds.Username = r.PostFormValue("username")
	creds.Password = r.PostFormValue("password")
	return creds, nil
}
