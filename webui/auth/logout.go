package auth

import (
	"net/http"

	"ruserwation/webui"
)

// LogoutHandler serves GET /admin/logout. It is idempotent: without a cookie
// it still clears the cookie and reports that there was no session.
func (m *Middleware) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := ParseSessionCookie(r, m.cookieConfig)
		http.SetCookie(w, ClearSessionCookie(m.cookieConfig))

		if err != nil {
			webui.RenderMessagePage(w, http.StatusOK, "No active session",
				"There was no session to end.",
				webui.Link{Href: LoginPath, Label: "Log in"})
			return
		}

		m.manager.Logout(r.Context(), sessionID)
		webui.RenderMessagePage(w, http.StatusOK, "Logged out",
			"Your session has ended.",
			webui.Link{Href: "/", Label: "Home"},
			webui.Link{Href: LoginPath, Label: "Log in"})
	}
}
