package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

// --- FindOrCreateUser ---

func TestFindOrCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates on first login and stores identity", func(t *testing.T) {
		u := mustFindOrCreateUser(t, ctx, "ada@example.com", "Ada Lovelace", "g-100", ProviderGoogle)
		t.Cleanup(func() { cleanupUser(t, ctx, u.ID) })

		if u.Email != "ada@example.com" || u.Name != "Ada Lovelace" {
			t.Errorf("profile not stored: %+v", u)
		}
		if u.OAuthProvider != ProviderGoogle || u.OAuthID != "g-100" {
			t.Errorf("identity not stored: %+v", u)
		}
		if u.CreatedAt.IsZero() {
			t.Error("created_at was not set")
		}
	})

	t.Run("second login returns the same row", func(t *testing.T) {
		first := mustFindOrCreateUser(t, ctx, "grace@example.com", "Grace", "gh-200", ProviderGitHub)
		t.Cleanup(func() { cleanupUser(t, ctx, first.ID) })

		// Same identity, fresher profile. The original row wins.
		second := mustFindOrCreateUser(t, ctx, "grace@new.example.com", "Grace H.", "gh-200", ProviderGitHub)
		if second.ID != first.ID {
			t.Fatalf("expected same user, got %s and %s", first.ID, second.ID)
		}
		if second.Email != "grace@example.com" {
			t.Errorf("first-login profile should be canonical, got %q", second.Email)
		}

		var count int
		if err := testStore.pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM users WHERE oauth_provider = $1 AND oauth_id = $2",
			ProviderGitHub, "gh-200").Scan(&count); err != nil {
			t.Fatalf("counting users: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 row, got %d", count)
		}
	})

	t.Run("same external id on another provider is a different user", func(t *testing.T) {
		g := mustFindOrCreateUser(t, ctx, "x@example.com", "X", "shared-id", ProviderGoogle)
		t.Cleanup(func() { cleanupUser(t, ctx, g.ID) })
		f := mustFindOrCreateUser(t, ctx, "x@example.com", "X", "shared-id", ProviderFacebook)
		t.Cleanup(func() { cleanupUser(t, ctx, f.ID) })

		if g.ID == f.ID {
			t.Error("identities on different providers must not collide")
		}
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		if _, err := testStore.FindOrCreateUser(ctx, "a@b.c", "A", "id-1", "myspace"); err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}

// --- GetUserByID ---

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()

	u := mustFindOrCreateUser(t, ctx, "byid@example.com", "By ID", "g-300", ProviderGoogle)
	t.Cleanup(func() { cleanupUser(t, ctx, u.ID) })

	got, err := testStore.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Email != u.Email {
		t.Errorf("expected %q, got %q", u.Email, got.Email)
	}

	cleanupUser(t, ctx, u.ID)
	if _, err := testStore.GetUserByID(ctx, u.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("expected pgx.ErrNoRows after delete, got %v", err)
	}
}

// --- SaveSearch / aggregates ---

func TestSaveSearch(t *testing.T) {
	ctx := context.Background()

	u := mustFindOrCreateUser(t, ctx, "searcher@example.com", "Searcher", "g-400", ProviderGoogle)
	t.Cleanup(func() { cleanupUser(t, ctx, u.ID) })

	t.Run("stores the row with defaults", func(t *testing.T) {
		t.Cleanup(func() { cleanupTopSearches(t, ctx, "save_test_sunset") })
		s := mustSaveSearch(t, ctx, u.ID, "save_test_sunset", 137)

		if s.Query != "save_test_sunset" || s.ImageCount != 137 {
			t.Errorf("unexpected row: %+v", s)
		}
		if s.SelectedImages == nil || len(s.SelectedImages) != 0 {
			t.Errorf("expected empty selection, got %v", s.SelectedImages)
		}
		if s.CreatedAt.IsZero() {
			t.Error("created_at was not set")
		}
	})

	t.Run("repeated terms accumulate in the aggregate", func(t *testing.T) {
		t.Cleanup(func() { cleanupTopSearches(t, ctx, "save_test_ocean") })
		for i := 0; i < 3; i++ {
			mustSaveSearch(t, ctx, u.ID, "save_test_ocean", 5)
		}

		var count int
		if err := testStore.pool.QueryRow(ctx,
			"SELECT count FROM top_searches WHERE query = $1", "save_test_ocean").Scan(&count); err != nil {
			t.Fatalf("reading aggregate: %v", err)
		}
		if count != 3 {
			t.Errorf("expected count 3, got %d", count)
		}
	})

	t.Run("rejects empty query", func(t *testing.T) {
		if _, err := testStore.SaveSearch(ctx, u.ID, "", 1, nil); err == nil {
			t.Error("expected error for empty query")
		}
	})
}

// --- GetUserSearches ---

func TestGetUserSearches(t *testing.T) {
	ctx := context.Background()

	alice := mustFindOrCreateUser(t, ctx, "alice@example.com", "Alice", "g-500", ProviderGoogle)
	t.Cleanup(func() { cleanupUser(t, ctx, alice.ID) })
	bob := mustFindOrCreateUser(t, ctx, "bob@example.com", "Bob", "g-501", ProviderGoogle)
	t.Cleanup(func() { cleanupUser(t, ctx, bob.ID) })

	t.Run("isolated per user, newest first", func(t *testing.T) {
		t.Cleanup(func() { cleanupTopSearches(t, ctx, "hist_a", "hist_b", "hist_bob") })
		mustSaveSearch(t, ctx, alice.ID, "hist_a", 1)
		mustSaveSearch(t, ctx, bob.ID, "hist_bob", 1)
		mustSaveSearch(t, ctx, alice.ID, "hist_b", 1)

		got, err := testStore.GetUserSearches(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetUserSearches: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(got))
		}
		if got[0].Query != "hist_b" || got[1].Query != "hist_a" {
			t.Errorf("wrong order: %q, %q", got[0].Query, got[1].Query)
		}
	})

	t.Run("bounded to twenty rows", func(t *testing.T) {
		many := mustFindOrCreateUser(t, ctx, "many@example.com", "Many", "g-502", ProviderGoogle)
		t.Cleanup(func() { cleanupUser(t, ctx, many.ID) })
		queries := make([]string, 0, 25)
		for i := 0; i < 25; i++ {
			q := fmt.Sprintf("bound_test_%d", i)
			queries = append(queries, q)
			mustSaveSearch(t, ctx, many.ID, q, 1)
		}
		t.Cleanup(func() { cleanupTopSearches(t, ctx, queries...) })

		got, err := testStore.GetUserSearches(ctx, many.ID)
		if err != nil {
			t.Fatalf("GetUserSearches: %v", err)
		}
		if len(got) != 20 {
			t.Errorf("expected 20 rows, got %d", len(got))
		}
		if got[0].Query != "bound_test_24" {
			t.Errorf("expected newest first, got %q", got[0].Query)
		}
	})
}

// --- GetSearchByID ---

func TestGetSearchByID(t *testing.T) {
	ctx := context.Background()

	owner := mustFindOrCreateUser(t, ctx, "owner@example.com", "Owner", "g-600", ProviderGoogle)
	t.Cleanup(func() { cleanupUser(t, ctx, owner.ID) })
	other := mustFindOrCreateUser(t, ctx, "other@example.com", "Other", "g-601", ProviderGoogle)
	t.Cleanup(func() { cleanupUser(t, ctx, other.ID) })
	t.Cleanup(func() { cleanupTopSearches(t, ctx, "byid_test") })

	s := mustSaveSearch(t, ctx, owner.ID, "byid_test", 9)

	got, err := testStore.GetSearchByID(ctx, s.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetSearchByID: %v", err)
	}
	if got.Query != "byid_test" {
		t.Errorf("unexpected row: %+v", got)
	}

	// Foreign lookups look identical to missing rows.
	if _, err := testStore.GetSearchByID(ctx, s.ID, other.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("expected pgx.ErrNoRows for foreign search, got %v", err)
	}
}

// --- UpdateLatestSelection ---

func TestUpdateLatestSelection(t *testing.T) {
	ctx := context.Background()

	u := mustFindOrCreateUser(t, ctx, "selector@example.com", "Selector", "g-700", ProviderGoogle)
	t.Cleanup(func() { cleanupUser(t, ctx, u.ID) })
	t.Cleanup(func() { cleanupTopSearches(t, ctx, "sel_test") })

	first := mustSaveSearch(t, ctx, u.ID, "sel_test", 3)
	second := mustSaveSearch(t, ctx, u.ID, "sel_test", 4)

	updated, err := testStore.UpdateLatestSelection(ctx, u.ID, "sel_test", []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("UpdateLatestSelection: %v", err)
	}
	if updated.ID != second.ID {
		t.Errorf("expected the most recent search %s, updated %s", second.ID, updated.ID)
	}
	if len(updated.SelectedImages) != 2 {
		t.Errorf("selection not stored: %v", updated.SelectedImages)
	}

	untouched, err := testStore.GetSearchByID(ctx, first.ID, u.ID)
	if err != nil {
		t.Fatalf("GetSearchByID: %v", err)
	}
	if len(untouched.SelectedImages) != 0 {
		t.Errorf("older search should be untouched: %v", untouched.SelectedImages)
	}

	if _, err := testStore.UpdateLatestSelection(ctx, u.ID, "never_searched", nil); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("expected pgx.ErrNoRows for unmatched query, got %v", err)
	}
}

// --- ClearUserSearches ---

func TestClearUserSearches(t *testing.T) {
	ctx := context.Background()

	u := mustFindOrCreateUser(t, ctx, "clearer@example.com", "Clearer", "g-800", ProviderGoogle)
	t.Cleanup(func() { cleanupUser(t, ctx, u.ID) })
	t.Cleanup(func() { cleanupTopSearches(t, ctx, "clear_test") })

	mustSaveSearch(t, ctx, u.ID, "clear_test", 1)
	mustSaveSearch(t, ctx, u.ID, "clear_test", 2)

	if err := testStore.ClearUserSearches(ctx, u.ID); err != nil {
		t.Fatalf("ClearUserSearches: %v", err)
	}

	got, err := testStore.GetUserSearches(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserSearches: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty history, got %d rows", len(got))
	}

	// The aggregate counts events, not retained rows. It survives.
	var count int
	if err := testStore.pool.QueryRow(ctx,
		"SELECT count FROM top_searches WHERE query = $1", "clear_test").Scan(&count); err != nil {
		t.Fatalf("reading aggregate: %v", err)
	}
	if count != 2 {
		t.Errorf("expected aggregate count 2 after clearing, got %d", count)
	}
}

// --- GetTopSearches ---

func TestGetTopSearches(t *testing.T) {
	ctx := context.Background()

	u := mustFindOrCreateUser(t, ctx, "topper@example.com", "Topper", "g-900", ProviderGoogle)
	t.Cleanup(func() { cleanupUser(t, ctx, u.ID) })
	t.Cleanup(func() { cleanupTopSearches(t, ctx, "top_test_a", "top_test_b", "top_test_c") })

	for i := 0; i < 3; i++ {
		mustSaveSearch(t, ctx, u.ID, "top_test_a", 1)
	}
	for i := 0; i < 2; i++ {
		mustSaveSearch(t, ctx, u.ID, "top_test_b", 1)
	}
	mustSaveSearch(t, ctx, u.ID, "top_test_c", 1)

	got, err := testStore.GetTopSearches(ctx, 2)
	if err != nil {
		t.Fatalf("GetTopSearches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	// Other tests may have left aggregates behind; only assert relative order
	// of our own terms when they appear.
	if got[0].Count < got[1].Count {
		t.Errorf("expected descending counts, got %d then %d", got[0].Count, got[1].Count)
	}
}
