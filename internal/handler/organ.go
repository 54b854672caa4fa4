package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/organlink/internal/service"
)

// OrganHandler serves donation offers.
type OrganHandler struct {
	svc    *service.OrganService
	logger *slog.Logger
}

// NewOrganHandler creates an OrganHandler.
func NewOrganHandler(svc *service.OrganService, logger *slog.Logger) *OrganHandler {
	return &OrganHandler{svc: svc, logger: logger}
}

type createOrganRequest struct {
	Type       string `json:"type" validate:"max=100"`
	BloodGroup string `json:"bloodGroup" validate:"max=20"`
	Gender     string `json:"gender" validate:"max=20"`
}

// HandleCreate registers an organ offered by the caller.
//
// HTTP: POST /api/organs
// REQUEST BODY: {"type": "kidney", "bloodGroup": "O+", "gender": "Male"}
// RESPONSE: 201 with the stored organ (status "available")
func (h *OrganHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	donorID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createOrganRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "Failed to create organ")
		return
	}

	organ, err := h.svc.Create(r.Context(), donorID, req.Type, req.BloodGroup, req.Gender)
	if err != nil {
		writeError(w, err, "Failed to create organ")
		return
	}

	writeJSON(w, http.StatusCreated, organ)
}

// HandleListAvailable returns every available organ with its donor's contact
// details, newest first. This route is public.
//
// HTTP: GET /api/organs
func (h *OrganHandler) HandleListAvailable(w http.ResponseWriter, r *http.Request) {
	organs, err := h.svc.ListAvailable(r.Context())
	if err != nil {
		writeError(w, err, "Failed to fetch organs")
		return
	}
	writeJSON(w, http.StatusOK, organs)
}

// HandleListMine returns the caller's organs in every status.
//
// HTTP: GET /api/organs/mine
func (h *OrganHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	donorID, ok := callerID(w, r)
	if !ok {
		return
	}

	organs, err := h.svc.ListByDonor(r.Context(), donorID)
	if err != nil {
		writeError(w, err, "Failed to fetch user's organs")
		return
	}
	writeJSON(w, http.StatusOK, organs)
}
