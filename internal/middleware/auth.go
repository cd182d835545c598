// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"codeberg.org/acmclub/certificates/internal/auth"
	"codeberg.org/acmclub/certificates/internal/models"
	authsvc "codeberg.org/acmclub/certificates/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// AdminContextKey is the echo context key holding the resolved admin.
const AdminContextKey = "admin"

// AdminResolver turns a bearer token into an active admin.
type AdminResolver interface {
	ResolveAdmin(ctx context.Context, token string) (*models.Admin, error)
}

// RequireAdmin rejects requests without a valid admin bearer token before
// the handler runs. Failures are returned as errors for the HTTP error
// handler to render.
func RequireAdmin(resolver AdminResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			token, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
			if !ok {
				reject(c, "missing_token")
				return authsvc.ErrMissingToken
			}

			admin, err := resolver.ResolveAdmin(req.Context(), token)
			if err != nil {
				if !errors.Is(err, authsvc.ErrUnauthorized) {
					return err
				}
				reason := "unknown_admin"
				if errors.Is(err, authsvc.ErrInvalidToken) {
					reason = "invalid_token"
				}
				reject(c, reason)
				return err
			}

			c.Set(AdminContextKey, admin)
			c.SetRequest(req.WithContext(auth.SetAdmin(req.Context(), admin)))
			return next(c)
		}
	}
}

func reject(c echo.Context, reason string) {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	slog.Warn("auth_rejected",
		"reason", reason,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
	)
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
