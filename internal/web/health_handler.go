// health_handler.go -- Health check handler for GET /health.
package web

import (
	"encoding/json"
	"net/http"
)

// CheckHealth handles GET /health — pings Postgres and Redis, returns per-dependency status.
// Returns 200 if both are healthy, 503 if either is down.
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	redisStatus := "ok"
	postgresStatus := "ok"

	if err := h.TS.CheckHealth(r.Context()); err != nil {
		logError(r, "redis health check failed", "error", err)
		redisStatus = "error"
	}
	if err := h.PS.CheckHealth(r.Context()); err != nil {
		logError(r, "postgres health check failed", "error", err)
		postgresStatus = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	if redisStatus == "error" || postgresStatus == "error" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(struct {
		Postgres string `json:"postgres"`
		Redis    string `json:"redis"`
	}{postgresStatus, redisStatus})
}
