// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go opens the store, builds the token and password services, the
// optional text generator and the optional rate limiter, and passes them in
// through Deps. New builds services → handlers → routes from them.
//
// The Server owns the store from then on: Start closes it on the way out,
// and so does Close for callers that never start the listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/organlink/internal/ai"
	"github.com/sakif/organlink/internal/auth"
	"github.com/sakif/organlink/internal/handler"
	"github.com/sakif/organlink/internal/middleware"
	"github.com/sakif/organlink/internal/repository"
	"github.com/sakif/organlink/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// ScopeRequestListToCaller limits GET /api/requests to the caller's own
	// requests.
	ScopeRequestListToCaller bool
}

// Deps are the collaborators main.go builds.
type Deps struct {
	Store     repository.Store
	Tokens    *auth.TokenService
	Passwords *auth.PasswordService
	// Generator may be nil: chat then answers 500 and history still works.
	Generator ai.TextGenerator
	// ChatLimiter may be nil: chat is then not rate limited.
	ChatLimiter middleware.Limiter
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config Config
	deps   Deps
	logger *slog.Logger
}

// New creates a Server and registers every route.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if deps.Tokens == nil || deps.Passwords == nil {
		return nil, errors.New("server: token and password services are required")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		deps:   deps,
		logger: logger,
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                           → banner (text)
// GET    /health                     → {"status":"ok"}
// POST   /api/auth/register          → create account            (public)
// POST   /api/auth/login             → issue bearer token        (public)
// GET    /api/auth/me                → caller's profile
// GET    /api/organs                 → available organs + donor   (public)
// POST   /api/organs                 → offer an organ
// GET    /api/organs/mine            → caller's organs
// GET    /api/requests               → requests + organ + requester
// POST   /api/requests               → file a request
// GET    /api/requests/mine          → caller's requests
// GET    /api/requests/matches       → pending request ↔ first matching organ
// PATCH  /api/requests/{id}/status   → status transition
// POST   /api/chat                   → chat reply (rate limited when configured)
// GET    /api/chat/history           → caller's chat history
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts the real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflight requests before any route runs
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// === Services ===
	users := s.deps.Store.Users()
	organs := s.deps.Store.Organs()
	requests := s.deps.Store.Requests()

	authService := service.NewAuthService(users, s.deps.Tokens, s.deps.Passwords, s.logger)
	organService := service.NewOrganService(organs, users, s.logger)
	requestService := service.NewRequestService(requests, organs, users, s.logger,
		service.WithListScopedToCaller(s.config.ScopeRequestListToCaller))
	chatService := service.NewChatService(users, s.deps.Generator, s.logger)

	// === Handlers ===
	systemHandler := handler.NewSystemHandler(s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)
	organHandler := handler.NewOrganHandler(organService, s.logger)
	requestHandler := handler.NewRequestHandler(requestService, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)

	requireAuth := auth.RequireAuth(s.deps.Tokens)

	s.router.Get("/", systemHandler.HandleRoot)
	s.router.Get("/health", systemHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/organs", func(r chi.Router) {
			r.Get("/", organHandler.HandleListAvailable)
			r.With(requireAuth).Post("/", organHandler.HandleCreate)
			r.With(requireAuth).Get("/mine", organHandler.HandleListMine)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", requestHandler.HandleList)
			r.Post("/", requestHandler.HandleCreate)
			r.Get("/mine", requestHandler.HandleListMine)
			r.Get("/matches", requestHandler.HandleMatches)
			r.Patch("/{id}/status", requestHandler.HandleUpdateStatus)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(requireAuth)
			send := r.With()
			if s.deps.ChatLimiter != nil {
				send = r.With(middleware.RateLimitPerUser(s.deps.ChatLimiter, s.logger))
			}
			send.Post("/", chatHandler.HandleSend)
			r.Get("/history", chatHandler.HandleHistory)
		})
	})
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store and the rate limiter
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Chat waits on the text generator, so writes get more room.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.Bool("chat_enabled", s.deps.Generator != nil),
			slog.Bool("chat_rate_limited", s.deps.ChatLimiter != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the store and, if it holds a connection, the rate limiter.
func (s *Server) Close() error {
	var errs []error
	if closer, ok := s.deps.ChatLimiter.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if err := s.deps.Store.Close(); err != nil {
		s.logger.Error("failed to close store", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
