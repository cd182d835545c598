// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"codeberg.org/acmclub/certificates/internal/database"
	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestAdmin creates an active admin with the given password.
func NewTestAdmin(t *testing.T, repo *repository.Repository, email, password string) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	admin := &models.Admin{
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	require.NoError(t, repo.CreateAdmin(context.Background(), admin))
	return admin
}

// NewTestWorkshop creates a workshop with the given title.
func NewTestWorkshop(t *testing.T, repo *repository.Repository, title string) *models.Workshop {
	t.Helper()
	w := &models.Workshop{
		Title:      title,
		Date:       "October 24, 2023",
		Level:      models.LevelAdvanced,
		Instructor: "Dr. Emily Chen",
	}
	require.NoError(t, repo.CreateWorkshop(context.Background(), w))
	return w
}

// NewTestCertificate creates a verified certificate with the given code.
func NewTestCertificate(t *testing.T, repo *repository.Repository, code, email string) *models.Certificate {
	t.Helper()
	c := &models.Certificate{
		Code:          code,
		RecipientName: "Alex Johnson",
		Email:         email,
		WorkshopName:  "Advanced React Patterns",
		IssueDate:     "October 24, 2023",
		Skills:        models.StringList{"React Hooks", "Context API"},
		Instructor:    "Dr. Emily Chen",
		IsVerified:    true,
	}
	require.NoError(t, repo.CreateCertificate(context.Background(), c))
	return c
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewEchoContextWithHeaders creates an Echo context with custom headers.
func NewEchoContextWithHeaders(e *echo.Echo, method, path string, body io.Reader, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
