// handler.go -- HTTP handler dependencies and consumer-side interfaces.
package web

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/mgrieco/lenslog/internal/metrics"
	"github.com/mgrieco/lenslog/internal/oauth"
	"github.com/mgrieco/lenslog/internal/store"
	"github.com/mgrieco/lenslog/internal/unsplash"
)

// Store defines database operations needed by the handlers.
// Satisfied by *store.PostgresStore.
type Store interface {
	// FindOrCreateUser resolves an external identity to a local user,
	// creating one on first login. Idempotent on (oauthProvider, oauthID).
	FindOrCreateUser(ctx context.Context, email, name, oauthID, oauthProvider string) (*store.User, error)

	// GetUserByID fetches a user by primary key. Returns pgx.ErrNoRows if absent.
	GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error)

	// SaveSearch inserts a search row and bumps the top_searches aggregate
	// as one transactional unit.
	SaveSearch(ctx context.Context, userID uuid.UUID, query string, imageCount int, selectedImages []string) (*store.Search, error)

	// GetUserSearches returns the user's 20 most recent searches, newest first.
	GetUserSearches(ctx context.Context, userID uuid.UUID) ([]store.Search, error)

	// GetSearchByID fetches one search, ownership-guarded.
	// Returns pgx.ErrNoRows for missing and foreign searches alike.
	GetSearchByID(ctx context.Context, id, userID uuid.UUID) (*store.Search, error)

	// UpdateLatestSelection amends selected_images on the user's most recent
	// search matching query. Returns pgx.ErrNoRows when there is none.
	UpdateLatestSelection(ctx context.Context, userID uuid.UUID, query string, selectedImages []string) (*store.Search, error)

	// ClearUserSearches deletes all of the user's searches; aggregates untouched.
	ClearUserSearches(ctx context.Context, userID uuid.UUID) error

	// GetTopSearches returns up to limit aggregates, highest count first.
	GetTopSearches(ctx context.Context, limit int) ([]store.TopSearch, error)

	// CheckHealth pings the database.
	CheckHealth(ctx context.Context) error
}

// TopSearchCache defines cache operations for the public top-searches
// endpoint. Satisfied by *store.RedisStore -- defined here at the consumer.
type TopSearchCache interface {
	// GetTopSearches returns the cached list for limit, or store.ErrCacheMiss.
	GetTopSearches(ctx context.Context, limit int) ([]store.TopSearch, error)

	// SetTopSearches caches the list for limit with a TTL.
	SetTopSearches(ctx context.Context, limit int, top []store.TopSearch, ttl time.Duration) error

	// CheckHealth pings the cache.
	CheckHealth(ctx context.Context) error
}

// SessionCodec signs and verifies session tokens.
// Satisfied by *token.Codec.
type SessionCodec interface {
	// Issue produces a signed token embedding userID.
	Issue(userID string) (string, error)

	// Verify returns the embedded userID, or ok=false for any invalid token.
	Verify(raw string) (string, bool)
}

// ImageSearcher proxies the external photo search API.
// Satisfied by *unsplash.Client.
type ImageSearcher interface {
	Search(ctx context.Context, query string, page int) (*unsplash.Result, error)
}

// Handler holds dependencies for all HTTP handlers and middleware.
// Construct in main.go with real stores; tests inject mocks.
type Handler struct {
	PS    Store
	TS    TopSearchCache
	Codec SessionCodec
	IS    ImageSearcher
	MX    *metrics.Collector

	// Providers maps the {provider} URL param to its OAuth implementation.
	// Unconfigured providers are simply absent and their routes 404.
	Providers map[string]oauth.Provider

	// SessionTTL sets cookie lifetime; must match the codec's token TTL.
	SessionTTL time.Duration

	// Secure marks session cookies Secure (production flag).
	Secure bool

	// TopCacheTTL bounds staleness of the cached top-searches payload.
	TopCacheTTL time.Duration
}
