// provider.go -- OAuth provider interface and shared types.
package oauth

import (
	"context"
	"time"
)

// Profile holds the normalized identity returned by an OAuth provider.
// All fields are fetched server-side with the access token; never trust
// client-supplied values. Email may be empty when the provider withholds it.
type Profile struct {
	ProviderID string // provider-scoped stable user ID (e.g. Google "sub", GitHub numeric id)
	Email      string
	Name       string // display name; providers without one fall back to a login handle
}

// Provider is an OAuth2 identity provider.
// Implementations handle provider-specific consent URLs, code exchange, and
// profile fetching. The token-endpoint protocol differs per provider
// (form-encoded POST, JSON POST, GET with querystring) and is fixed by the
// provider -- implementations must not normalize it.
type Provider interface {
	// Name returns the provider identifier used as the URL param and stored in the DB.
	Name() string

	// AuthCodeURL returns the provider consent page URL with state embedded.
	AuthCodeURL(state string) string

	// Exchange trades the authorization code for an access token and fetches
	// the normalized profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// upstreamTimeout bounds every outbound provider call so a hanging token or
// profile endpoint cannot hold a request handler indefinitely.
const upstreamTimeout = 10 * time.Second
