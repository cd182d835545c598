// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"testing"

	"codeberg.org/acmclub/certificates/internal/auth"
	"codeberg.org/acmclub/certificates/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGetAdmin(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, auth.GetAdmin(ctx))
	assert.False(t, auth.IsAuthenticated(ctx))

	admin := &models.Admin{ID: "a1", Email: "admin@example.com"}
	ctx = auth.SetAdmin(ctx, admin)

	assert.Same(t, admin, auth.GetAdmin(ctx))
	assert.True(t, auth.IsAuthenticated(ctx))
}
