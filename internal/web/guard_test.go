// guard_test.go -- unit tests for the page routing table and PageGuard middleware.
package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/mgrieco/lenslog/internal/testutil"
)

// TestGuard covers every cell of the page routing table.
func TestGuard(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		hasSession bool
		want       string
	}{
		{"dashboard without session", "/dashboard", false, "/login"},
		{"dashboard subpage without session", "/dashboard/history", false, "/login"},
		{"dashboard with session", "/dashboard", true, ""},
		{"login without session", "/login", false, ""},
		{"login with session", "/login", true, "/dashboard"},
		{"root without session", "/", false, ""},
		{"root with session", "/", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Guard(tt.path, tt.hasSession); got != tt.want {
				t.Errorf("Guard(%q, %v) = %q, want %q", tt.path, tt.hasSession, got, tt.want)
			}
		})
	}
}

// TestPageGuard_RedirectsAnonymousDashboard checks the middleware end of the guard.
func TestPageGuard_RedirectsAnonymousDashboard(t *testing.T) {
	h := newTestHandler(testutil.NewMockStore(), nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()
	h.PageGuard(http.HandlerFunc(h.DashboardPage)).ServeHTTP(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("unexpected redirect %q", loc)
	}
}

// TestPageGuard_TamperedCookieCountsAsAnonymous treats an invalid token like
// no session rather than erroring.
func TestPageGuard_TamperedCookieCountsAsAnonymous(t *testing.T) {
	h := newTestHandler(testutil.NewMockStore(), nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "tampered"})
	w := httptest.NewRecorder()
	h.PageGuard(http.HandlerFunc(h.DashboardPage)).ServeHTTP(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("unexpected redirect %q", loc)
	}
}

// TestPageGuard_SignedInLoginBounces redirects signed-in users off the login page.
func TestPageGuard_SignedInLoginBounces(t *testing.T) {
	h := newTestHandler(testutil.NewMockStore(), nil, nil)
	userID, _ := uuid.NewV7()

	r := authedRequest(t, h, httptest.NewRequest(http.MethodGet, "/login", nil), userID)
	w := httptest.NewRecorder()
	h.PageGuard(http.HandlerFunc(h.LoginPage)).ServeHTTP(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("unexpected redirect %q", loc)
	}
}

// TestPageGuard_ServesAllowedPage passes allowed requests through untouched.
func TestPageGuard_ServesAllowedPage(t *testing.T) {
	h := newTestHandler(testutil.NewMockStore(), nil, nil)
	userID, _ := uuid.NewV7()

	r := authedRequest(t, h, httptest.NewRequest(http.MethodGet, "/dashboard", nil), userID)
	w := httptest.NewRecorder()
	h.PageGuard(http.HandlerFunc(h.DashboardPage)).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
