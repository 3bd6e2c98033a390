// Package store handles all database and cache interactions.
//
// postgres.go -- pgxpool connection setup and queries.
// Creates a connection pool at startup, shared across all handlers.
// All queries use parameterized statements (no string concatenation).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore wraps a pgx connection pool for all durable storage.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a verified connection pool to PostgreSQL wrapped
// in a ready-to-use store.
// Call once at startup from main.go; the returned store is safe for concurrent use.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return &PostgresStore{pool}, nil
}

// Close shuts down the connection pool and releases all resources.
// Call via defer in main.go after creating the store.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// CheckHealth pings Postgres. Used by the /health endpoint.
func (s *PostgresStore) CheckHealth(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const userColumns = "id, email, name, oauth_id, oauth_provider, created_at"

// scanUser reads one user row in userColumns order.
func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.OAuthID, &u.OAuthProvider, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindOrCreateUser looks up a user by the composite (oauthProvider, oauthID)
// key, creating one with the given profile if absent.
// Idempotent: repeated calls for the same identity return the same row and
// never update email/name with later-reported values. Safe under concurrent
// first logins -- the insert is ON CONFLICT DO NOTHING and the loser of the
// race re-reads the winner's row.
func (s *PostgresStore) FindOrCreateUser(ctx context.Context, email, name, oauthID, oauthProvider string) (*User, error) {
	if oauthID == "" || !ValidProvider(oauthProvider) {
		return nil, fmt.Errorf("invalid oauth identity (provider=%q)", oauthProvider)
	}

	user, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE oauth_provider = $1 AND oauth_id = $2",
		oauthProvider, oauthID))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating user id: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, oauth_id, oauth_provider)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (oauth_provider, oauth_id) DO NOTHING
	`, id, email, name, oauthID, oauthProvider); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	// Re-read rather than RETURNING: when a concurrent request won the
	// insert race, DO NOTHING returns no row and this select finds theirs.
	user, err = scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE oauth_provider = $1 AND oauth_id = $2",
		oauthProvider, oauthID))
	if err != nil {
		return nil, fmt.Errorf("reading back user: %w", err)
	}
	return user, nil
}

// GetUserByID fetches a user row by primary key.
// Returns pgx.ErrNoRows if no such user exists.
func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

const searchColumns = "id, user_id, query, image_count, selected_images, created_at"

// scanSearch reads one search row in searchColumns order.
func scanSearch(row pgx.Row) (*Search, error) {
	var sr Search
	if err := row.Scan(&sr.ID, &sr.UserID, &sr.Query, &sr.ImageCount, &sr.SelectedImages, &sr.CreatedAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// SaveSearch inserts a new search row and bumps the top_searches aggregate
// for the query, as one transaction -- a failure in either write rolls both
// back so the aggregate never silently undercounts.
// The counter increment is a single atomic upsert; concurrent saves of the
// same query never lose increments.
func (s *PostgresStore) SaveSearch(ctx context.Context, userID uuid.UUID, query string, imageCount int, selectedImages []string) (*Search, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if selectedImages == nil {
		selectedImages = []string{}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating search id: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning save search tx: %w", err)
	}
	defer tx.Rollback(ctx)

	search, err := scanSearch(tx.QueryRow(ctx, `
		INSERT INTO searches (id, user_id, query, image_count, selected_images)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+searchColumns,
		id, userID, query, imageCount, selectedImages))
	if err != nil {
		return nil, fmt.Errorf("inserting search: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO top_searches (query, count, last_searched)
		VALUES ($1, 1, now())
		ON CONFLICT (query) DO UPDATE
			SET count = top_searches.count + 1, last_searched = now()
	`, query); err != nil {
		return nil, fmt.Errorf("upserting top search: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing save search tx: %w", err)
	}
	return search, nil
}

// historyPageSize bounds both history read paths (GET /history and
// GET /search/history) to the same window: 20 most recent searches.
const historyPageSize = 20

// GetUserSearches returns the caller's search history, newest first,
// bounded to historyPageSize rows.
func (s *PostgresStore) GetUserSearches(ctx context.Context, userID uuid.UUID) ([]Search, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+searchColumns+` FROM searches
		 WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, historyPageSize)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	searches := []Search{}
	for rows.Next() {
		var sr Search
		if err := rows.Scan(&sr.ID, &sr.UserID, &sr.Query, &sr.ImageCount, &sr.SelectedImages, &sr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		searches = append(searches, sr)
	}
	return searches, rows.Err()
}

// GetSearchByID fetches a single search owned by userID.
// Returns pgx.ErrNoRows both when the search doesn't exist and when it is
// owned by someone else -- callers can't probe other users' search IDs.
func (s *PostgresStore) GetSearchByID(ctx context.Context, id, userID uuid.UUID) (*Search, error) {
	return scanSearch(s.pool.QueryRow(ctx,
		"SELECT "+searchColumns+" FROM searches WHERE id = $1 AND user_id = $2",
		id, userID))
}

// UpdateLatestSelection amends selected_images on the caller's most recent
// search for the exact query string. Ownership-guarded by the user_id match.
// Returns pgx.ErrNoRows when the user has no search for that query.
func (s *PostgresStore) UpdateLatestSelection(ctx context.Context, userID uuid.UUID, query string, selectedImages []string) (*Search, error) {
	if selectedImages == nil {
		selectedImages = []string{}
	}
	return scanSearch(s.pool.QueryRow(ctx, `
		UPDATE searches SET selected_images = $3
		WHERE id = (
			SELECT id FROM searches
			WHERE user_id = $1 AND query = $2
			ORDER BY created_at DESC, id DESC LIMIT 1
		)
		RETURNING `+searchColumns,
		userID, query, selectedImages))
}

// ClearUserSearches deletes all search rows owned by userID.
// top_searches is deliberately untouched: popularity is global and is not
// rolled back when one user clears their history.
func (s *PostgresStore) ClearUserSearches(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM searches WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("clearing searches: %w", err)
	}
	return nil
}

// GetTopSearches returns up to limit aggregates ordered by count descending,
// ties broken by most recently searched. The caller clamps limit.
func (s *PostgresStore) GetTopSearches(ctx context.Context, limit int) ([]TopSearch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT query, count, last_searched FROM top_searches
		ORDER BY count DESC, last_searched DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top searches: %w", err)
	}
	defer rows.Close()

	top := []TopSearch{}
	for rows.Next() {
		var ts TopSearch
		if err := rows.Scan(&ts.Query, &ts.Count, &ts.LastSearched); err != nil {
			return nil, fmt.Errorf("scanning top search row: %w", err)
		}
		top = append(top, ts)
	}
	return top, rows.Err()
}
