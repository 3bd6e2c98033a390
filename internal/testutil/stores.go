// stores.go
//
// Shared mock implementations of web.Store, web.TopSearchCache, and
// web.ImageSearcher. Imported by test files across packages to avoid
// duplicate mock definitions.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/mgrieco/lenslog/internal/store"
	"github.com/mgrieco/lenslog/internal/unsplash"
)

// MockStore implements web.Store for tests.
//
// Always stateful...Users and Searches are maps/slices, like a real store.
// Use *Err fields to inject errors for specific operations.
// Not-found conditions return pgx.ErrNoRows so handler errors.Is checks
// behave the same as against the real store.
type MockStore struct {
	// Error injection...zero value means no error
	FindOrCreateUserErr  error
	GetUserByIDErr       error
	SaveSearchErr        error
	GetUserSearchesErr   error
	GetSearchByIDErr     error
	UpdateSelectionErr   error
	ClearUserSearchesErr error
	GetTopSearchesErr    error
	CheckHealthErr       error

	Users    map[uuid.UUID]*store.User // keyed by user ID
	Searches []*store.Search           // append order == insertion order
	Top      map[string]*store.TopSearch

	mu sync.Mutex
}

// NewMockStore returns a MockStore seeded with the given users, indexed by ID.
func NewMockStore(users ...*store.User) *MockStore {
	ms := &MockStore{
		Users: make(map[uuid.UUID]*store.User),
		Top:   make(map[string]*store.TopSearch),
	}
	for _, u := range users {
		ms.Users[u.ID] = u
	}
	return ms
}

func (m *MockStore) FindOrCreateUser(_ context.Context, email, name, oauthID, oauthProvider string) (*store.User, error) {
	if m.FindOrCreateUserErr != nil {
		return nil, m.FindOrCreateUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.OAuthProvider == oauthProvider && u.OAuthID == oauthID {
			return u, nil
		}
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	u := &store.User{
		ID:            id,
		Email:         email,
		Name:          name,
		OAuthID:       oauthID,
		OAuthProvider: oauthProvider,
		CreatedAt:     time.Now(),
	}
	m.Users[id] = u
	return u, nil
}

func (m *MockStore) GetUserByID(_ context.Context, id uuid.UUID) (*store.User, error) {
	if m.GetUserByIDErr != nil {
		return nil, m.GetUserByIDErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *MockStore) SaveSearch(_ context.Context, userID uuid.UUID, query string, imageCount int, selectedImages []string) (*store.Search, error) {
	if m.SaveSearchErr != nil {
		return nil, m.SaveSearchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	if selectedImages == nil {
		selectedImages = []string{}
	}
	s := &store.Search{
		ID:             id,
		UserID:         userID,
		Query:          query,
		ImageCount:     imageCount,
		SelectedImages: selectedImages,
		CreatedAt:      time.Now(),
	}
	m.Searches = append(m.Searches, s)
	if t, ok := m.Top[query]; ok {
		t.Count++
		t.LastSearched = s.CreatedAt
	} else {
		m.Top[query] = &store.TopSearch{Query: query, Count: 1, LastSearched: s.CreatedAt}
	}
	return s, nil
}

func (m *MockStore) GetUserSearches(_ context.Context, userID uuid.UUID) ([]store.Search, error) {
	if m.GetUserSearchesErr != nil {
		return nil, m.GetUserSearchesErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.Search{}
	for i := len(m.Searches) - 1; i >= 0 && len(out) < 20; i-- {
		if m.Searches[i].UserID == userID {
			out = append(out, *m.Searches[i])
		}
	}
	return out, nil
}

func (m *MockStore) GetSearchByID(_ context.Context, id, userID uuid.UUID) (*store.Search, error) {
	if m.GetSearchByIDErr != nil {
		return nil, m.GetSearchByIDErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Searches {
		if s.ID == id && s.UserID == userID {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *MockStore) UpdateLatestSelection(_ context.Context, userID uuid.UUID, query string, selectedImages []string) (*store.Search, error) {
	if m.UpdateSelectionErr != nil {
		return nil, m.UpdateSelectionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Searches) - 1; i >= 0; i-- {
		s := m.Searches[i]
		if s.UserID == userID && s.Query == query {
			s.SelectedImages = selectedImages
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *MockStore) ClearUserSearches(_ context.Context, userID uuid.UUID) error {
	if m.ClearUserSearchesErr != nil {
		return m.ClearUserSearchesErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Searches[:0]
	for _, s := range m.Searches {
		if s.UserID != userID {
			kept = append(kept, s)
		}
	}
	m.Searches = kept
	return nil
}

func (m *MockStore) GetTopSearches(_ context.Context, limit int) ([]store.TopSearch, error) {
	if m.GetTopSearchesErr != nil {
		return nil, m.GetTopSearchesErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.TopSearch, 0, len(m.Top))
	for _, t := range m.Top {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastSearched.After(out[j].LastSearched)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStore) CheckHealth(_ context.Context) error {
	return m.CheckHealthErr
}

// MockCache implements web.TopSearchCache for tests.
// Zero value misses everything; Entries records SetTopSearches calls.
type MockCache struct {
	GetErr         error // returned verbatim; defaults below to ErrCacheMiss when nil map
	SetErr         error
	CheckHealthErr error

	Entries map[int][]store.TopSearch

	mu sync.Mutex
}

func (m *MockCache) GetTopSearches(_ context.Context, limit int) ([]store.TopSearch, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	top, ok := m.Entries[limit]
	if !ok {
		return nil, store.ErrCacheMiss
	}
	return top, nil
}

func (m *MockCache) SetTopSearches(_ context.Context, limit int, top []store.TopSearch, _ time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Entries == nil {
		m.Entries = make(map[int][]store.TopSearch)
	}
	m.Entries[limit] = top
	return nil
}

func (m *MockCache) CheckHealth(_ context.Context) error {
	return m.CheckHealthErr
}

// MockImageSearcher implements web.ImageSearcher for tests.
// Records the last query/page and returns Result or Err verbatim.
type MockImageSearcher struct {
	Result *unsplash.Result
	Err    error

	LastQuery string
	LastPage  int
}

func (m *MockImageSearcher) Search(_ context.Context, query string, page int) (*unsplash.Result, error) {
	m.LastQuery = query
	m.LastPage = page
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}
