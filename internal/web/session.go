// session.go

// Session cookie management.
package web

import (
	"net/http"
	"time"
)

// sessionCookieName is the signed session token cookie. Matches the name the
// frontend expects when deciding whether to show logged-in chrome.
const sessionCookieName = "auth-token"

// setSessionCookie writes auth-token with HttpOnly, SameSite=Lax and
// Secure when running in production.
func (h *Handler) setSessionCookie(w http.ResponseWriter, signed string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// clearSessionCookie overwrites auth-token with MaxAge=-1 to trigger browser deletion.
func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	// Essentially just nulling out cookie by setting new expired vals
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
