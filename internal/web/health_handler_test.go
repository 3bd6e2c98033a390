// health_handler_test.go -- unit tests for GET /health.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mgrieco/lenslog/internal/testutil"
)

func healthStatus(t *testing.T, w *httptest.ResponseRecorder) (pg, redis string) {
	t.Helper()
	var got struct {
		Postgres string `json:"postgres"`
		Redis    string `json:"redis"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	return got.Postgres, got.Redis
}

// TestCheckHealth_AllHealthy expects 200 with both deps ok.
func TestCheckHealth_AllHealthy(t *testing.T) {
	h := newTestHandler(testutil.NewMockStore(), nil, nil)

	w := httptest.NewRecorder()
	h.CheckHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if pg, redis := healthStatus(t, w); pg != "ok" || redis != "ok" {
		t.Errorf("expected ok/ok, got %s/%s", pg, redis)
	}
}

// TestCheckHealth_PostgresDown expects 503 with only postgres flagged.
func TestCheckHealth_PostgresDown(t *testing.T) {
	ms := testutil.NewMockStore()
	ms.CheckHealthErr = errors.New("connection refused")
	h := newTestHandler(ms, nil, nil)

	w := httptest.NewRecorder()
	h.CheckHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if pg, redis := healthStatus(t, w); pg != "error" || redis != "ok" {
		t.Errorf("expected error/ok, got %s/%s", pg, redis)
	}
}

// TestCheckHealth_RedisDown expects 503 with only redis flagged.
func TestCheckHealth_RedisDown(t *testing.T) {
	h := newTestHandler(testutil.NewMockStore(), nil, nil)
	h.TS = &testutil.MockCache{CheckHealthErr: errors.New("connection refused")}

	w := httptest.NewRecorder()
	h.CheckHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if pg, redis := healthStatus(t, w); pg != "ok" || redis != "error" {
		t.Errorf("expected ok/error, got %s/%s", pg, redis)
	}
}
