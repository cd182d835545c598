// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON HTTP API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"codeberg.org/acmclub/certificates/internal/i18n"
	"github.com/labstack/echo/v4"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers contains the service-level endpoints.
type Handlers struct {
	db      Pinger
	version string
}

// New creates a new Handlers instance.
func New(db Pinger, version string) *Handlers {
	return &Handlers{db: db, version: version}
}

// Health reports the service and database status.
func (h *Handlers) Health(c echo.Context) error {
	ctx := c.Request().Context()
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			slog.Error("health_check_failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"app":    i18n.T(ctx, "app_name"),
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"app":    i18n.T(ctx, "app_name"),
	})
}

// Root describes the API.
func (h *Handlers) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": i18n.T(c.Request().Context(), "api_welcome"),
		"version": h.version,
	})
}
