// google.go -- Google OAuth2 + OIDC provider implementation.
package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// GoogleProvider implements Provider using Google's OIDC discovery + OAuth2 code flow.
// Token exchange is the standard form-encoded POST; the profile comes from the
// OIDC UserInfo endpoint.
type GoogleProvider struct {
	config   *oauth2.Config
	provider *oidc.Provider
}

// NewGoogleProvider creates a GoogleProvider by fetching Google's OIDC discovery document.
// Makes an outbound HTTP request to accounts.google.com at startup; returns an error if unreachable.
func NewGoogleProvider(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleProvider, error) {
	p, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("google oidc discovery: %w", err)
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     p.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		provider: p,
	}, nil
}

// Name returns "google".
func (p *GoogleProvider) Name() string { return "google" }

// AuthCodeURL builds the Google consent page URL with state embedded.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token, then fetches the
// user's profile from the UserInfo endpoint.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	info, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}

	var c struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := info.Claims(&c); err != nil {
		return nil, fmt.Errorf("extracting userinfo claims: %w", err)
	}
	if c.Sub == "" {
		return nil, fmt.Errorf("empty sub in userinfo response")
	}

	return &Profile{
		ProviderID: c.Sub,
		Email:      c.Email,
		Name:       c.Name,
	}, nil
}

// compile-time interface check
var _ Provider = (*GoogleProvider)(nil)
