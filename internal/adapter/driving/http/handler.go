// Package httphandler serves the panel's JSON endpoints and provides the
// shared request middleware.
package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/smartqpanel/internal/application"
)

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SessionReader exposes the signed-in state.
type SessionReader interface {
	Current() application.SessionInfo
}

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	db      Pinger
	session SessionReader
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(db Pinger, session SessionReader, logger *slog.Logger) *Handler {
	return &Handler{
		db:      db,
		session: session,
		logger:  logger,
	}
}

// RegisterAPIRoutes registers the JSON endpoints on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/session", h.Session)
}

// Health reports process liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Error("health check database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Session returns the signed-in user and credential state.
func (h *Handler) Session(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toSessionResponse(h.session.Current()))
}
