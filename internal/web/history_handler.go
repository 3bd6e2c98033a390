// history_handler.go -- Search history and top-searches endpoints.
package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mgrieco/lenslog/internal/store"
)

// Limit bounds for the public top-searches endpoint. Out-of-range values are
// clamped rather than rejected -- the endpoint is public and a 400 here just
// trains clients to retry.
const (
	topSearchesDefault = 5
	topSearchesMax     = 50
)

// GetHistory handles GET /history -- the caller's recent searches, newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "unauthorized")
		return
	}

	searches, err := h.PS.GetUserSearches(r.Context(), userID)
	if err != nil {
		logError(r, "get history: query failed", "error", err)
		InternalServerError(w, r, err)
		return
	}

	WriteJSON(w, r, http.StatusOK, struct {
		Searches []store.Search `json:"searches"`
	}{searches})
}

// ClearHistory handles DELETE /history -- removes all of the caller's
// searches. Global aggregates are deliberately untouched: they count events,
// not retained rows.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "unauthorized")
		return
	}

	if err := h.PS.ClearUserSearches(r.Context(), userID); err != nil {
		logError(r, "clear history: delete failed", "error", err)
		InternalServerError(w, r, err)
		return
	}

	logInfo(r, "history cleared", "user_id", userID)
	OK(w, "history cleared")
}

// GetSearchHistory handles GET /search/history -- the dashboard's combined
// view: the caller's recent searches plus the global top five terms.
func (h *Handler) GetSearchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "unauthorized")
		return
	}

	searches, err := h.PS.GetUserSearches(r.Context(), userID)
	if err != nil {
		logError(r, "search history: query failed", "error", err)
		InternalServerError(w, r, err)
		return
	}
	top, err := h.topSearches(r, topSearchesDefault)
	if err != nil {
		logError(r, "search history: top searches failed", "error", err)
		InternalServerError(w, r, err)
		return
	}

	WriteJSON(w, r, http.StatusOK, struct {
		Searches    []store.Search    `json:"searches"`
		TopSearches []store.TopSearch `json:"topSearches"`
	}{searches, top})
}

// GetTopSearches handles GET /top-searches?limit= -- public, cached, and
// rate-limited at the router.
func (h *Handler) GetTopSearches(w http.ResponseWriter, r *http.Request) {
	limit := topSearchesDefault
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > topSearchesMax {
		limit = topSearchesMax
	}

	top, err := h.topSearches(r, limit)
	if err != nil {
		logError(r, "top searches: query failed", "error", err)
		InternalServerError(w, r, err)
		return
	}

	WriteJSON(w, r, http.StatusOK, struct {
		TopSearches []store.TopSearch `json:"topSearches"`
	}{top})
}

// topSearches reads the aggregate list through the cache. Cache failures are
// non-fatal in both directions -- Postgres is the source of truth and a cold
// or broken cache only costs latency.
func (h *Handler) topSearches(r *http.Request, limit int) ([]store.TopSearch, error) {
	top, err := h.TS.GetTopSearches(r.Context(), limit)
	if err == nil {
		return top, nil
	}
	if !errors.Is(err, store.ErrCacheMiss) {
		logWarn(r, "top searches cache read failed, falling back to postgres", "error", err)
	}

	top, err = h.PS.GetTopSearches(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []store.TopSearch{}
	}
	if err := h.TS.SetTopSearches(r.Context(), limit, top, h.TopCacheTTL); err != nil {
		logWarn(r, "top searches cache write failed", "error", err)
	}
	return top, nil
}
