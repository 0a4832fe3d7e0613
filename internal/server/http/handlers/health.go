package handlers

import (
	"net/http"

	"github.com/dmitrijs2005/usergate/internal/server/http/respond"
)

// Livez answers as long as the process serves HTTP.
func (h *Handlers) Livez(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, "ok")
}

// Healthz reports ready only while the store answers pings.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "readiness check failed", "error", err)
		respond.JSON(w, http.StatusServiceUnavailable, respond.Envelope{Error: "Service unavailable"})
		return
	}
	respond.Message(w, "ok")
}
