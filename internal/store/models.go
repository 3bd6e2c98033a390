// models.go -- Shared domain types for the store package.
// Used by both Postgres (durable store) and Redis (cache layer).
package store

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
)

// ErrCacheMiss is returned by GetTopSearches when the key is not in Redis.
// Callers use errors.Is to distinguish a true miss from a Redis infrastructure failure.
var ErrCacheMiss = errors.New("cache miss")

// Provider name constants stored in users.oauth_provider.
// The DB CHECK constraint enforces the same set.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
	ProviderGitHub   = "github"
)

// ValidProvider reports whether name is one of the three supported providers.
func ValidProvider(name string) bool {
	return name == ProviderGoogle || name == ProviderFacebook || name == ProviderGitHub
}

// User represents a row in the users table.
// Identity is the composite (OAuthProvider, OAuthID) pair; Email may be the
// empty string when the provider withheld it. Rows are never updated after
// creation -- the first-login profile is canonical.
type User struct {
	ID            uuid.UUID `json:"userId"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	OAuthID       string    `json:"-"`
	OAuthProvider string    `json:"oauthProvider"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Search represents a row in the searches table.
// ImageCount is the total the upstream API reported, not the number of items
// stored. SelectedImages holds external photo IDs the user marked.
type Search struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"userId"`
	Query          string    `json:"query"`
	ImageCount     int       `json:"imageCount"`
	SelectedImages []string  `json:"selectedImages"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TopSearch represents a row in the top_searches table -- the global
// popularity counter for one exact query string. "Cats" and "cats" are
// distinct rows; no normalization is applied.
type TopSearch struct {
	Query        string    `json:"query"`
	Count        int       `json:"count"`
	LastSearched time.Time `json:"lastSearched"`
}
