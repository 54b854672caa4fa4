package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/organlink/internal/auth"
	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/service"
)

// AuthHandler serves registration, login and the caller's profile.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account
//   - HandleLogin    → check credentials, issue a bearer token
//   - HandleMe       → return the logged-in user's profile
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" validate:"max=200"`
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=200"`
	Phone    string `json:"phone" validate:"max=50"`
	Address  string `json:"address" validate:"max=500"`
}

type registerResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=200"`
}

type loginUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"name", "email", "password", "phone", "address"}
// RESPONSE: 201 {"id", "name", "email", "phone", "address"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "Registration failed")
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		writeError(w, err, "Registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Phone:   user.Phone,
		Address: user.Address,
	})
}

// HandleLogin checks credentials and returns a bearer token.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email", "password"}
// RESPONSE: 200 {"token", "user": {"id", "name", "email"}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "Login failed")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User: loginUser{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
		},
	})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/auth/me
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		h.logger.Warn("profile lookup failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		writeError(w, err, "Failed to fetch profile")
		return
	}

	writeJSON(w, http.StatusOK, model.ProfileOf(user))
}

// callerID reads the authenticated user's ID. On a route behind RequireAuth
// it is always present; if not, it writes a 401 and returns false.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Code:    "unauthorized",
			Message: auth.MsgTokenMissing,
		})
		return "", false
	}
	return userID, true
}
