package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/organlink/internal/service"
)

// RequestHandler serves organ requests, the match listing and status updates.
type RequestHandler struct {
	svc    *service.RequestService
	logger *slog.Logger
}

// NewRequestHandler creates a RequestHandler.
func NewRequestHandler(svc *service.RequestService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{svc: svc, logger: logger}
}

type createRequestRequest struct {
	OrganID             string `json:"organId" validate:"max=64"`
	RequestedType       string `json:"requestedType" validate:"max=100"`
	RequestedBloodGroup string `json:"requestedBloodGroup" validate:"max=20"`
	Notes               string `json:"notes" validate:"max=2000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"max=20"`
}

// HandleCreate files a request, either against a specific available organ
// (organId) or for a type and blood group.
//
// HTTP: POST /api/requests
// REQUEST BODY: {"organId"} or {"requestedType", "requestedBloodGroup"}, plus optional "notes"
func (h *RequestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "Failed to create request")
		return
	}

	created, err := h.svc.Create(r.Context(), requesterID, service.CreateRequestInput{
		OrganID:             req.OrganID,
		RequestedType:       req.RequestedType,
		RequestedBloodGroup: req.RequestedBloodGroup,
		Notes:               req.Notes,
	})
	if err != nil {
		writeError(w, err, "Failed to create request")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleList returns requests with organ and requester resolved.
//
// HTTP: GET /api/requests
func (h *RequestHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	requests, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to fetch requests")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// HandleListMine returns the caller's own requests.
//
// HTTP: GET /api/requests/mine
func (h *RequestHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	requests, err := h.svc.ListMine(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to fetch requests")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// HandleMatches pairs each pending request with its first matching
// available organ.
//
// HTTP: GET /api/requests/matches
// RESPONSE: [{"request": {...}, "match": {...} | null}, ...]
func (h *RequestHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.svc.Matches(r.Context())
	if err != nil {
		writeError(w, err, "Matching failed")
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// HandleUpdateStatus moves a request to a new status. Fulfilling a request
// that links an organ marks that organ donated.
//
// HTTP: PATCH /api/requests/{id}/status
// REQUEST BODY: {"status": "pending" | "approved" | "rejected" | "fulfilled"}
func (h *RequestHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "Failed to update status")
		return
	}

	updated, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err, "Failed to update status")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
