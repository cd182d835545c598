// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/middleware"
	"codeberg.org/acmclub/certificates/internal/models"
	"github.com/labstack/echo/v4"
)

// MessageResponse acknowledges a mutation that returns no entity.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// bind decodes the request into v and runs the registered validator.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Invalid("body", "malformed request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(v)
}

// page reads the skip and limit query parameters. Clamping happens in the
// services.
func page(c echo.Context) (int, int, error) {
	var skip, limit int
	err := echo.QueryParamsBinder(c).
		Int("skip", &skip).
		Int("limit", &limit).
		BindError()
	if err != nil {
		field := "query"
		var be *echo.BindingError
		if errors.As(err, &be) && be.Field != "" {
			field = be.Field
		}
		return 0, 0, apperr.Invalid(field, "must be an integer")
	}
	return skip, limit, nil
}

// currentAdmin returns the admin resolved by the authorization gate.
func currentAdmin(c echo.Context) *models.Admin {
	admin, _ := c.Get(middleware.AdminContextKey).(*models.Admin)
	return admin
}
