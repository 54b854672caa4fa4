// Package handler contains the HTTP handlers of the organ-donation API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, JSON body)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, JSON body)
//
// Handlers hold no business rules. Validation that depends on what a field
// means (is this status allowed, is this organ available) happens in the
// services; handlers only check the payload's shape.
package handler

import (
	"log/slog"
	"net/http"
)

// Banner is the plain-text body of GET /.
const Banner = "Organ Donation API running"

// SystemHandler serves the liveness endpoints.
type SystemHandler struct {
	logger *slog.Logger
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(logger *slog.Logger) *SystemHandler {
	return &SystemHandler{logger: logger}
}

// HandleRoot answers GET / with a plain-text banner.
func (h *SystemHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(Banner)); err != nil {
		h.logger.Error("failed to write banner", slog.String("error", err.Error()))
	}
}

// HandleHealth answers GET /health.
func (h *SystemHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
