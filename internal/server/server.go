// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage and services into the echo
// HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/database"
	"codeberg.org/acmclub/certificates/internal/handlers"
	"codeberg.org/acmclub/certificates/internal/i18n"
	"codeberg.org/acmclub/certificates/internal/repository"
	authsvc "codeberg.org/acmclub/certificates/internal/services/auth"
	"codeberg.org/acmclub/certificates/internal/services/certificate"
	"codeberg.org/acmclub/certificates/internal/services/email"
	"codeberg.org/acmclub/certificates/internal/services/storage"
	"codeberg.org/acmclub/certificates/internal/services/template"
	"codeberg.org/acmclub/certificates/internal/services/workshop"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// Version is reported by the root endpoint. Overridden at build time.
var Version = "1.0.0"

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"env", cfg.Env,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	e, deps, err := newServer(cfg, db)
	if err != nil {
		return err
	}

	return startWithGracefulShutdown(ctx, e, cfg, deps.certificates.Wait)
}

// New builds the echo server with all services, middleware and routes.
func New(cfg *config.Config, db *sqlx.DB) (*echo.Echo, error) {
	e, _, err := newServer(cfg, db)
	return e, err
}

func newServer(cfg *config.Config, db *sqlx.DB) (*echo.Echo, *routerDeps, error) {
	deps, err := buildDeps(cfg, db)
	if err != nil {
		return nil, nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	setupMiddleware(e, cfg)
	setupRoutes(e, deps)

	return e, deps, nil
}

func buildDeps(cfg *config.Config, db *sqlx.DB) (*routerDeps, error) {
	repo := repository.New(db)

	tokens := authsvc.NewTokenManager(&cfg.Auth)
	auth, err := authsvc.NewService(repo, &cfg.Auth, tokens)
	if err != nil {
		return nil, err
	}

	var certOpts []certificate.Option
	notifier, err := newNotifier(cfg)
	if err != nil {
		return nil, err
	}
	if notifier != nil {
		certOpts = append(certOpts, certificate.WithNotifier(notifier))
	}

	store, local, err := newObjectStore(cfg)
	if err != nil {
		return nil, err
	}

	return &routerDeps{
		cfg:          cfg,
		db:           db,
		auth:         auth,
		workshops:    workshop.NewService(repo, cfg.API),
		certificates: certificate.NewService(repo, cfg.API, cfg.Certificates, certOpts...),
		templates:    template.NewService(repo),
		images:       storage.NewImageService(store),
		localStore:   local,
	}, nil
}

// newObjectStore returns the configured image backend. The local store is
// also returned on its own so its directory can be served.
func newObjectStore(cfg *config.Config) (storage.ObjectStore, *storage.LocalStore, error) {
	if cfg.Storage.Driver == "supabase" {
		slog.Info("image storage", "driver", "supabase", "bucket", cfg.Storage.SupabaseBucket)
		return storage.NewSupabaseStore(cfg.Storage), nil, nil
	}

	local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Server.BaseURL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("image storage", "driver", "local", "dir", cfg.Storage.LocalDir)
	return local, local, nil
}

// newNotifier returns nil unless recipient mails are enabled and SMTP is
// configured.
func newNotifier(cfg *config.Config) (certificate.Notifier, error) {
	if !cfg.Notify.Enabled {
		return nil, nil
	}
	if !cfg.SMTP.Enabled() {
		slog.Warn("recipient notifications enabled without smtp-host, skipping")
		return nil, nil
	}

	svc, err := email.NewService(&cfg.SMTP, cfg.Certificates.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create email service: %w", err)
	}
	return svc, nil
}

// startWithGracefulShutdown serves until a signal, cancellation or error.
// drain runs after the listeners stop and before the database is closed.
func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config, drain func()) error {
	ts, err := setupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if ts.Mode == config.TLSACME {
		addr = ":443"
	}

	errChan := make(chan error, 2)

	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL, "tls", ts.Mode)
		var err error
		if ts.Config != nil {
			// e.TLSServer is the server e.Shutdown stops.
			e.TLSServer.Addr = addr
			e.TLSServer.TLSConfig = ts.Config
			e.TLSServer.ReadHeaderTimeout = 10 * time.Second
			err = e.StartServer(e.TLSServer)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// HTTP-01 challenges and HTTPS redirect
	var challengeServer *http.Server
	if ts.ChallengeHandler != nil {
		challengeServer = &http.Server{
			Addr:              ":80",
			Handler:           ts.ChallengeHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("ACME challenge listener active", "addr", challengeServer.Addr)
			if err := challengeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	// Wait for interrupt signal, cancellation or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if challengeServer != nil {
		if err := challengeServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown ACME challenge listener", "error", err)
		}
	}
	if drain != nil {
		drain()
	}

	slog.Info("server stopped")
	return nil
}
