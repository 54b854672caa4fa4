// Package main is the entry point for the organ-donation API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (config file, environment)
// 2. Create dependencies (logger, store, token service, text generator)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/service, ...).
//
// COMMANDS:
//
//	organlink            serve the HTTP API (default)
//	organlink migrate    open the configured store, run migrations, exit
//	organlink matches    print the current match set as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/organlink/internal/ai"
	"github.com/sakif/organlink/internal/auth"
	"github.com/sakif/organlink/internal/config"
	"github.com/sakif/organlink/internal/ratelimit"
	"github.com/sakif/organlink/internal/repository"
	"github.com/sakif/organlink/internal/repository/postgres"
	"github.com/sakif/organlink/internal/repository/sqlite"
	"github.com/sakif/organlink/internal/server"
	"github.com/sakif/organlink/internal/service"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "organlink",
		Short:        "Organ donation coordination API",
		Long:         `OrganLink serves the organ donation API: donors offer organs, recipients file requests, and pending requests are matched to available organs.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("ORGANLINK_CONFIG"),
		"path to a YAML config file (env ORGANLINK_CONFIG)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "matches",
		Short: "Print each pending request with its first matching available organ",
		Args:  cobra.NoArgs,
		RunE:  runMatches,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger every command uses.
func setup(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg.Log, logOut), nil
}

// newLogger builds a structured logger. Log levels (from least to most
// severe): Debug → Info → Warn → Error.
func newLogger(cfg config.LogConfig, out io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// openStore opens the configured store and runs its migrations.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		logger.Info("opening postgres store")
		db, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
		if cfg.Path != ":memory:" {
			dir := filepath.Dir(cfg.Path)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		logger.Info("opening sqlite store", slog.String("path", cfg.Path))
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(os.Stdout)
	if err != nil {
		return err
	}

	// Cancelled on Ctrl+C or SIGTERM; Start then shuts down gracefully.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		return err
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		store.Close()
		return err
	}

	deps := server.Deps{
		Store:     store,
		Tokens:    tokens,
		Passwords: auth.NewPasswordService(),
	}

	// The chat assistant is optional: without credentials the server still
	// starts and POST /api/chat answers 500.
	if cfg.Chat.Enabled() {
		gen, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
			APIKey:  cfg.Chat.APIKey,
			Model:   cfg.Chat.Model,
			Timeout: cfg.Chat.Timeout,
			UseADC:  cfg.Chat.UseADC,
		})
		if err != nil {
			logger.Warn("chat assistant unavailable", slog.String("error", err.Error()))
		} else {
			deps.Generator = gen
		}
	} else {
		logger.Warn("GOOGLE_API_KEY not set and ADC disabled, chat assistant is off")
	}

	if cfg.Redis.Addr != "" {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.Redis.Addr, cfg.Redis.Password, "organlink:chat",
			cfg.Chat.RateLimit, cfg.Chat.RateWindow,
		)
		if err != nil {
			store.Close()
			logger.Error("failed to connect to redis", slog.String("error", err.Error()))
			return err
		}
		deps.ChatLimiter = limiter
	}

	srv, err := server.New(server.Config{
		Port:                     cfg.Server.Port,
		CORSOrigins:              cfg.Server.CORSOrigins,
		ScopeRequestListToCaller: cfg.Requests.ScopeListToCaller,
	}, deps, logger)
	if err != nil {
		store.Close()
		return err
	}

	// Start blocks until ctx is cancelled, then closes the store.
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(os.Stdout)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg.Database, logger)
	if err != nil {
		logger.Error("migration failed", slog.String("error", err.Error()))
		return err
	}
	logger.Info("schema is up to date", slog.String("driver", cfg.Database.Driver))
	return store.Close()
}

func runMatches(cmd *cobra.Command, _ []string) error {
	// Logs go to stderr so stdout carries only the JSON.
	cfg, logger, err := setup(os.Stderr)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.NewRequestService(store.Requests(), store.Organs(), store.Users(), logger)
	matches, err := svc.Matches(cmd.Context())
	if err != nil {
		return fmt.Errorf("computing matches: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(matches)
}
