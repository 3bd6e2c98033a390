// github.go -- GitHub OAuth2 provider implementation.
//
// GitHub's token endpoint takes a JSON POST (with Accept: application/json to
// opt out of the legacy form-encoded response). The /user profile may omit
// email for users who keep it private; a secondary /user/emails call picks
// the primary address.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	defaultGitHubTokenURL  = "https://github.com/login/oauth/access_token"
	defaultGitHubUserURL   = "https://api.github.com/user"
	defaultGitHubEmailsURL = "https://api.github.com/user/emails"
)

// GitHubProvider implements Provider against the GitHub OAuth app flow.
type GitHubProvider struct {
	config *oauth2.Config

	// Endpoint overrides for tests; empty means production GitHub.
	tokenURL  string
	userURL   string
	emailsURL string

	httpClient *http.Client
}

// NewGitHubProvider returns a GitHubProvider with a 10s outbound client.
func NewGitHubProvider(clientID, clientSecret, redirectURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		tokenURL:   defaultGitHubTokenURL,
		userURL:    defaultGitHubUserURL,
		emailsURL:  defaultGitHubEmailsURL,
		httpClient: &http.Client{Timeout: upstreamTimeout},
	}
}

// Name returns "github".
func (p *GitHubProvider) Name() string { return "github" }

// AuthCodeURL builds the GitHub authorize URL with state embedded.
func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token (JSON POST, a
// GitHub-specific protocol), then fetches /user and, if needed, /user/emails.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	accessToken, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := p.getJSON(ctx, p.userURL, accessToken, &user); err != nil {
		return nil, fmt.Errorf("fetching user profile: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("empty id in user profile response")
	}

	email := user.Email
	if email == "" {
		email, err = p.fetchPrimaryEmail(ctx, accessToken)
		if err != nil {
			return nil, fmt.Errorf("fetching user emails: %w", err)
		}
	}

	// Users without a display name still have a login handle.
	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		ProviderID: strconv.FormatInt(user.ID, 10),
		Email:      email,
		Name:       name,
	}, nil
}

// exchangeToken POSTs the code as JSON to the token endpoint.
func (p *GitHubProvider) exchangeToken(ctx context.Context, code string) (string, error) {
	payload, err := json.Marshal(struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
		Code         string `json:"code"`
		RedirectURI  string `json:"redirect_uri"`
	}{p.config.ClientID, p.config.ClientSecret, code, p.config.RedirectURL})
	if err != nil {
		return "", fmt.Errorf("encoding token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}
	return tokenResp.AccessToken, nil
}

// fetchPrimaryEmail lists the user's emails and returns the primary one,
// falling back to the first entry. Returns "" when the list is empty --
// a GitHub account is allowed to expose no email at all.
func (p *GitHubProvider) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := p.getJSON(ctx, p.emailsURL, accessToken, &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", nil
}

// getJSON performs a Bearer-authenticated GET and decodes the JSON body into out.
func (p *GitHubProvider) getJSON(ctx context.Context, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Provider = (*GitHubProvider)(nil)
