// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/handlers"
	"codeberg.org/acmclub/certificates/internal/repository"
	authsvc "codeberg.org/acmclub/certificates/internal/services/auth"
	"codeberg.org/acmclub/certificates/internal/services/storage"
	"codeberg.org/acmclub/certificates/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderError(t *testing.T, method string, err error) (*httptest.ResponseRecorder, handlers.ErrorResponse) {
	t.Helper()

	c, rec := testutil.NewEchoContext(echo.New(), method, "/api/test", nil)

	handlers.HTTPErrorHandler(err, c)

	var body handlers.ErrorResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantDetail string
	}{
		{
			name:       "validation",
			err:        apperr.Invalid("email", "is required"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request",
			wantDetail: "email: is required",
		},
		{
			name:       "wrapped validation",
			err:        fmt.Errorf("creating workshop: %w", apperr.Invalid("name", "is required")),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request",
			wantDetail: "name: is required",
		},
		{
			name:       "unsupported image type",
			err:        storage.ErrUnsupportedType,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid file type. Allowed types: PNG, JPEG, WebP",
		},
		{
			name:       "image too large",
			err:        storage.ErrTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "File too large. Maximum size is 10MB",
		},
		{
			name:       "invalid credentials",
			err:        authsvc.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantError:  "Incorrect email or password",
		},
		{
			name:       "missing token",
			err:        authsvc.ErrMissingToken,
			wantStatus: http.StatusUnauthorized,
			wantError:  "Not authenticated",
		},
		{
			name:       "unauthorized",
			err:        fmt.Errorf("%w: inactive admin", authsvc.ErrUnauthorized),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Not authenticated",
		},
		{
			name:       "registration closed",
			err:        authsvc.ErrRegistrationClosed,
			wantStatus: http.StatusForbidden,
			wantError:  "Registration is closed",
		},
		{
			name:       "email taken",
			err:        fmt.Errorf("%w: %w", authsvc.ErrEmailTaken, repository.ErrConflict),
			wantStatus: http.StatusConflict,
			wantError:  "Email already registered",
		},
		{
			name:       "already initialized",
			err:        authsvc.ErrAlreadyInitialized,
			wantStatus: http.StatusConflict,
			wantError:  "Admin user already exists",
		},
		{
			name:       "conflict",
			err:        repository.ErrConflict,
			wantStatus: http.StatusConflict,
			wantError:  "Resource already exists",
		},
		{
			name:       "record not found",
			err:        repository.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "Resource not found",
		},
		{
			name:       "object not found",
			err:        storage.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "Resource not found",
		},
		{
			name:       "echo not found",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "Resource not found",
		},
		{
			name:       "echo body limit",
			err:        echo.ErrStatusRequestEntityTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "File too large. Maximum size is 10MB",
		},
		{
			name:       "echo bad request keeps message",
			err:        echo.NewHTTPError(http.StatusBadRequest, "missing file"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request",
			wantDetail: "missing file",
		},
		{
			name:       "echo method not allowed",
			err:        echo.ErrMethodNotAllowed,
			wantStatus: http.StatusMethodNotAllowed,
			wantError:  "Method Not Allowed",
		},
		{
			name:       "echo server error",
			err:        echo.ErrServiceUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Internal server error",
		},
		{
			name:       "unknown error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := renderError(t, http.MethodGet, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, body.Error)
			assert.Equal(t, tt.wantDetail, body.Detail)
		})
	}
}

func TestHTTPErrorHandler_Head(t *testing.T) {
	rec, _ := renderError(t, http.MethodHead, repository.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestHTTPErrorHandler_Committed(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, c.String(http.StatusOK, "done"))

	handlers.HTTPErrorHandler(errors.New("late failure"), c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
