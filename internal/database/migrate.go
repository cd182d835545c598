// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/vinovest/sqlx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// setup points goose at the embedded migrations using the dialect that
// matches the connection's driver.
func setup(db *sqlx.DB) error {
	goose.SetBaseFS(embedMigrations)

	dialect, err := dialectFor(db.DriverName())
	if err != nil {
		return err
	}
	return goose.SetDialect(dialect)
}

func dialectFor(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return "sqlite3", nil
	case DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("no migration dialect for driver %q", driver)
	}
}

// RunMigrations runs all pending goose migrations.
func RunMigrations(db *sqlx.DB) error {
	if err := setup(db); err != nil {
		return err
	}
	return goose.Up(db.DB, "migrations")
}

// MigrateDown rolls back the last migration.
func MigrateDown(db *sqlx.DB) error {
	if err := setup(db); err != nil {
		return err
	}
	return goose.Down(db.DB, "migrations")
}

// MigrateReset rolls back all migrations.
func MigrateReset(db *sqlx.DB) error {
	if err := setup(db); err != nil {
		return err
	}
	return goose.Reset(db.DB, "migrations")
}

// MigrationVersion returns the current schema version.
func MigrationVersion(db *sqlx.DB) (int64, error) {
	if err := setup(db); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db.DB)
}

// MigrationStatus logs the applied state of every migration.
func MigrationStatus(db *sqlx.DB) error {
	if err := setup(db); err != nil {
		return err
	}
	return goose.Status(db.DB, "migrations")
}
