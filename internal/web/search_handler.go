// search_handler.go -- Photo search endpoints.
//
// POST /search runs the search AND records it; GET /search is the
// pagination path and records nothing, so paging through results doesn't
// inflate anyone's history or the global aggregates.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/mgrieco/lenslog/internal/unsplash"
)

// searchResponse is the shared wire shape for both search paths.
type searchResponse struct {
	Term       string           `json:"term"`
	Count      int              `json:"count"`
	Results    []unsplash.Photo `json:"results"`
	TotalPages int              `json:"total_pages"`
}

// Search handles POST /search -- runs a first-page photo search, persists it
// to the caller's history, and bumps the global aggregate for the term.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "unauthorized")
		return
	}

	var input struct {
		Term string `json:"term"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logWarn(r, "search: failed to decode input", "error", err)
		BadRequest(w, r, "error decoding request body")
		return
	}
	term := strings.TrimSpace(input.Term)
	if term == "" {
		BadRequest(w, r, "search term is required")
		return
	}

	start := time.Now()
	result, err := h.IS.Search(r.Context(), term, 1)
	h.MX.RecordUnsplashLatency(time.Since(start))
	if err != nil {
		logError(r, "search: upstream request failed", "error", err, "term", term)
		h.MX.RecordUpstreamError("unsplash")
		InternalServerError(w, r, err)
		return
	}

	// History entry carries the total match count, not the page size --
	// that's what the dashboard shows next to each past search.
	if _, err := h.PS.SaveSearch(r.Context(), userID, term, result.Total, nil); err != nil {
		logError(r, "search: failed to persist", "error", err, "term", term)
		InternalServerError(w, r, err)
		return
	}
	h.MX.RecordSearch()
	logInfo(r, "search recorded", "user_id", userID, "term", term, "total", result.Total)

	WriteJSON(w, r, http.StatusOK, searchResponse{
		Term:       term,
		Count:      result.Total,
		Results:    result.Photos,
		TotalPages: result.TotalPages,
	})
}

// SearchPage handles GET /search?q=&page= -- pagination pass-through.
// Nothing is persisted here.
func (h *Handler) SearchPage(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		BadRequest(w, r, "query parameter q is required")
		return
	}
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			BadRequest(w, r, "page must be a positive integer")
			return
		}
		page = n
	}

	start := time.Now()
	result, err := h.IS.Search(r.Context(), term, page)
	h.MX.RecordUnsplashLatency(time.Since(start))
	if err != nil {
		logError(r, "search page: upstream request failed", "error", err, "term", term, "page", page)
		h.MX.RecordUpstreamError("unsplash")
		InternalServerError(w, r, err)
		return
	}

	WriteJSON(w, r, http.StatusOK, searchResponse{
		Term:       term,
		Count:      result.Total,
		Results:    result.Photos,
		TotalPages: result.TotalPages,
	})
}

// SaveSelection handles POST /search/selection -- amends the caller's most
// recent search for the given query with the image IDs they picked.
func (h *Handler) SaveSelection(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "unauthorized")
		return
	}

	var input struct {
		Query          string   `json:"query"`
		SelectedImages []string `json:"selectedImages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logWarn(r, "save selection: failed to decode input", "error", err)
		BadRequest(w, r, "error decoding request body")
		return
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		BadRequest(w, r, "query is required")
		return
	}
	if input.SelectedImages == nil {
		input.SelectedImages = []string{}
	}

	search, err := h.PS.UpdateLatestSelection(r.Context(), userID, query, input.SelectedImages)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			NotFound(w, r, "no search found for query")
			return
		}
		logError(r, "save selection: update failed", "error", err)
		InternalServerError(w, r, err)
		return
	}

	logInfo(r, "selection saved", "user_id", userID, "search_id", search.ID, "images", len(input.SelectedImages))
	WriteJSON(w, r, http.StatusOK, search)
}

// GetSearch handles GET /search/{searchID} -- fetches one of the caller's
// past searches. Foreign and missing searches both 404.
func (h *Handler) GetSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "unauthorized")
		return
	}

	searchID, err := uuid.FromString(chi.URLParam(r, "searchID"))
	if err != nil {
		BadRequest(w, r, "invalid search id")
		return
	}

	search, err := h.PS.GetSearchByID(r.Context(), searchID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			NotFound(w, r, "search not found")
			return
		}
		logError(r, "get search: lookup failed", "error", err)
		InternalServerError(w, r, err)
		return
	}

	WriteJSON(w, r, http.StatusOK, search)
}
