// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/database"
	"codeberg.org/acmclub/certificates/internal/repository"
	"codeberg.org/acmclub/certificates/internal/seed"
	"codeberg.org/acmclub/certificates/internal/server"
	authsvc "codeberg.org/acmclub/certificates/internal/services/auth"
	"codeberg.org/acmclub/certificates/internal/services/certificate"
	"codeberg.org/acmclub/certificates/internal/services/workshop"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// withDB loads the configuration, opens the database (applying pending
// migrations) and runs fn.
func withDB(cmd *cli.Command, fn func(cfg *config.Config, db *sqlx.DB) error) error {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	return fn(cfg, db)
}

func initAdmin(ctx context.Context, cmd *cli.Command) error {
	return withDB(cmd, func(cfg *config.Config, db *sqlx.DB) error {
		repo := repository.New(db)
		svc, err := authsvc.NewService(repo, &cfg.Auth, authsvc.NewTokenManager(&cfg.Auth))
		if err != nil {
			return err
		}

		admin, err := svc.InitAdmin(ctx)
		if errors.Is(err, authsvc.ErrAlreadyInitialized) {
			slog.Info("admin already exists", "email", cfg.Auth.AdminEmail)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Created admin %s\n", admin.Email)
		return nil
	})
}

func seedData(ctx context.Context, cmd *cli.Command) error {
	return withDB(cmd, func(cfg *config.Config, db *sqlx.DB) error {
		repo := repository.New(db)

		res, err := seed.Run(ctx,
			workshop.NewService(repo, cfg.API),
			certificate.NewService(repo, cfg.API, cfg.Certificates),
		)
		if err != nil {
			return err
		}

		fmt.Printf("Created %d workshops and %d certificates\n", res.Workshops, res.Certificates)
		fmt.Println("Sample certificate codes: ACM-2024-REACT001, ACM-2024-PYDS001")
		return nil
	})
}

func migrateUp(_ context.Context, cmd *cli.Command) error {
	return withDB(cmd, func(_ *config.Config, db *sqlx.DB) error {
		version, err := database.MigrationVersion(db)
		if err != nil {
			return err
		}
		fmt.Printf("Database at version %d\n", version)
		return nil
	})
}

func migrateDown(_ context.Context, cmd *cli.Command) error {
	return withDB(cmd, func(_ *config.Config, db *sqlx.DB) error {
		if err := database.MigrateDown(db); err != nil {
			return err
		}
		version, err := database.MigrationVersion(db)
		if err != nil {
			return err
		}
		fmt.Printf("Rolled back to version %d\n", version)
		return nil
	})
}

func migrateStatus(_ context.Context, cmd *cli.Command) error {
	return withDB(cmd, func(_ *config.Config, db *sqlx.DB) error {
		return database.MigrationStatus(db)
	})
}
