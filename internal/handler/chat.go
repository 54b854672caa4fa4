package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/service"
)

// ChatHandler serves the chat assistant.
type ChatHandler struct {
	svc    *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// HandleSend answers one message and stores both turns in the caller's
// history.
//
// HTTP: POST /api/chat
// REQUEST BODY: {"message": "..."}
// RESPONSE: 200 {"reply": "..."}
func (h *ChatHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		// A non-string message is reported like a missing one.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Field == "message" {
			err = apperror.ValidationFailed("message", service.MsgChatMessageRequired)
		}
		writeError(w, err, "Chat failed")
		return
	}

	reply, err := h.svc.Send(r.Context(), userID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrChatUnavailable) {
			h.logger.Error("chat requested but no generator is configured")
		}
		writeError(w, err, "Chat failed")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// HandleHistory returns the caller's full chat history, oldest first.
//
// HTTP: GET /api/chat/history
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	turns, err := h.svc.History(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to fetch chat history")
		return
	}
	writeJSON(w, http.StatusOK, turns)
}
