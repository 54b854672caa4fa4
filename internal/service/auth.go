// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// Services accept primitives (or small input structs) and return domain
// errors from the apperror package. They never see *http.Request and never
// pick HTTP status codes, so the same code backs the HTTP API and the CLI.
//
// DEPENDENCY INJECTION:
// Every service takes repository interfaces, not *sqlite.DB or *postgres.DB.
// Tests pass in-memory fakes; main.go picks the real store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/auth"
	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/repository"
)

// Messages that are part of the API contract.
const (
	MsgRegisterFieldsRequired = "Name, email, password, phone and address are required"
	MsgEmailTaken             = "Email already registered"
	MsgInvalidCredentials     = "Invalid credentials"
	MsgUserNotFound           = "User not found"
)

// AuthService handles registration, login and profile lookup.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (store)
//	                                 ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput carries the registration form. Every field is required.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// AuthResult bundles the authenticated user and the issued bearer token.
type AuthResult struct {
	User  *model.User
	Token string
}

// NormalizeEmail trims and lower-cases an address. Registration and login
// both go through it, so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account.
//
// Text fields are trimmed; the password is taken verbatim. A second account
// with the same (normalized) email is rejected with a conflict. The store's
// UNIQUE index backs up the pre-check when two registrations race.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	user := &model.User{
		Name:    strings.TrimSpace(in.Name),
		Email:   NormalizeEmail(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
	if user.Name == "" || user.Email == "" || in.Password == "" || user.Phone == "" || user.Address == "" {
		return nil, apperror.ValidationFailed("", MsgRegisterFieldsRequired)
	}

	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return nil, apperror.ConflictMessage(MsgEmailTaken)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ConflictMessage(MsgEmailTaken)
		}
		s.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Login checks the credentials and issues a bearer token.
//
// Unknown email and wrong password produce the same error so the response
// does not reveal which addresses are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("failed login", slog.String("user_id", user.ID))
			return nil, apperror.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// Profile returns the caller's own record.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage(MsgUserNotFound)
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return user, nil
}
