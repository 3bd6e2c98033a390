// middleware.go

// Session authentication middleware.
package web

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"
)

// contextKey is unexported to prevent collisions with other packages using the same context.
type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext retrieves the authenticated user's ID from context.
// Returns zero UUID and false if RequireAuth hasn't run.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// sessionUserID extracts and verifies the session token from the request
// cookie. Returns the zero UUID and false for missing, malformed, expired,
// or tampered tokens alike -- callers don't get to distinguish.
func (h *Handler) sessionUserID(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return uuid.Nil, false
	}
	sub, ok := h.Codec.Verify(cookie.Value)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.FromString(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RequireAuth validates the session cookie and injects user_id into context
// on success; returns 401 on any failure. The token is stateless, so no
// store lookup happens here -- handlers that need the full user row fetch it.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.sessionUserID(r)
		if !ok {
			logWarn(r, "require auth failed", "reason", "invalid_session")
			Unauthorized(w, r, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
