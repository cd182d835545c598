// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/acmclub/certificates/internal/handlers"
	"codeberg.org/acmclub/certificates/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error { return p.err }

func call(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	c, rec := testutil.NewEchoContext(echo.New(), http.MethodGet, "/", nil)

	require.NoError(t, h(c))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	h := handlers.New(stubPinger{}, "1.2.3")

	rec, body := call(t, h.Health)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ACM Certificate System", body["app"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	h := handlers.New(stubPinger{err: errors.New("connection refused")}, "1.2.3")

	rec, body := call(t, h.Health)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestHealth_NoDatabase(t *testing.T) {
	rec, body := call(t, handlers.New(nil, "1.2.3").Health)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestRoot(t *testing.T) {
	rec, body := call(t, handlers.New(nil, "1.2.3").Root)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.2.3", body["version"])
	assert.NotEmpty(t, body["message"])
}
