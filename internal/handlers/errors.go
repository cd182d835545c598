// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/ctxkeys"
	"codeberg.org/acmclub/certificates/internal/i18n"
	"codeberg.org/acmclub/certificates/internal/repository"
	authsvc "codeberg.org/acmclub/certificates/internal/services/auth"
	"codeberg.org/acmclub/certificates/internal/services/storage"
	"github.com/labstack/echo/v4"
)

// Translation keys naming the entity in "not found" messages.
const (
	EntityAdmin       = "entity_admin"
	EntityWorkshop    = "entity_workshop"
	EntityCertificate = "entity_certificate"
	EntityTemplate    = "entity_template"
	EntityImage       = "entity_image"
	EntityResource    = "entity_resource"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// notFoundError names the entity a lookup failed for.
type notFoundError struct {
	entity string
	err    error
}

func (e *notFoundError) Error() string { return e.entity + ": " + e.err.Error() }
func (e *notFoundError) Unwrap() error { return e.err }

// withEntity tags not-found errors with the entity that was looked up.
func withEntity(entity string, err error) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, storage.ErrNotFound) {
		return &notFoundError{entity: entity, err: err}
	}
	return err
}

// HTTPErrorHandler renders every error returned by handlers and middleware
// as a localized ErrorResponse.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(c.Request().Context(), err)
	if status == http.StatusInternalServerError {
		requestID, _ := c.Request().Context().Value(ctxkeys.RequestID{}).(string)
		slog.Error("request_failed",
			"request_id", requestID,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}

// errorResponse maps an error to its status code and localized body.
func errorResponse(ctx context.Context, err error) (int, ErrorResponse) {
	var (
		validation *apperr.ValidationError
		notFound   *notFoundError
		httpErr    *echo.HTTPError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorResponse{Error: i18n.T(ctx, "error_validation"), Detail: validation.Error()}

	case errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusBadRequest, ErrorResponse{Error: i18n.TData(ctx, "error_unsupported_type", map[string]any{
			"Types": "PNG, JPEG, WebP",
		})}

	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, tooLarge(ctx)

	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: i18n.T(ctx, "error_invalid_credentials")}

	case errors.Is(err, authsvc.ErrMissingToken), errors.Is(err, authsvc.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: i18n.T(ctx, "error_unauthorized")}

	case errors.Is(err, authsvc.ErrRegistrationClosed):
		return http.StatusForbidden, ErrorResponse{Error: i18n.T(ctx, "error_forbidden")}

	case errors.Is(err, authsvc.ErrEmailTaken):
		return http.StatusConflict, ErrorResponse{Error: i18n.T(ctx, "error_email_taken")}

	case errors.Is(err, authsvc.ErrAlreadyInitialized):
		return http.StatusConflict, ErrorResponse{Error: i18n.T(ctx, "error_already_initialized")}

	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: i18n.T(ctx, "error_conflict")}

	case errors.As(err, &notFound):
		return http.StatusNotFound, entityNotFound(ctx, notFound.entity)

	case errors.Is(err, repository.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, entityNotFound(ctx, EntityResource)

	case errors.As(err, &httpErr):
		return httpErrorResponse(ctx, httpErr)
	}

	return http.StatusInternalServerError, ErrorResponse{Error: i18n.T(ctx, "error_internal")}
}

func httpErrorResponse(ctx context.Context, he *echo.HTTPError) (int, ErrorResponse) {
	switch he.Code {
	case http.StatusNotFound:
		return he.Code, entityNotFound(ctx, EntityResource)
	case http.StatusRequestEntityTooLarge:
		return he.Code, tooLarge(ctx)
	case http.StatusUnauthorized:
		return he.Code, ErrorResponse{Error: i18n.T(ctx, "error_unauthorized")}
	case http.StatusBadRequest:
		return he.Code, ErrorResponse{Error: i18n.T(ctx, "error_validation"), Detail: fmt.Sprint(he.Message)}
	}

	if he.Code >= http.StatusInternalServerError {
		return he.Code, ErrorResponse{Error: i18n.T(ctx, "error_internal")}
	}
	return he.Code, ErrorResponse{Error: http.StatusText(he.Code)}
}

func entityNotFound(ctx context.Context, entity string) ErrorResponse {
	return ErrorResponse{Error: i18n.TData(ctx, "error_not_found", map[string]any{
		"Entity": i18n.T(ctx, entity),
	})}
}

func tooLarge(ctx context.Context) ErrorResponse {
	return ErrorResponse{Error: i18n.TData(ctx, "error_too_large", map[string]any{
		"MaxMB": storage.MaxImageSize >> 20,
	})}
}
