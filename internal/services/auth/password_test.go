// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"errors"
	"strings"
	"testing"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/services/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("admin123")
	require.NoError(t, err)

	assert.True(t, h.Verify("admin123", digest))
	assert.False(t, h.Verify("admin124", digest))
}

func TestHasher_SaltedDigests(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestHasher_MalformedDigest(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("admin123", ""))
	assert.False(t, h.Verify("admin123", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("admin123", "$2a$10$short"))
}

func TestHasher_UsesConfiguredCost(t *testing.T) {
	digest, err := auth.NewHasher(bcrypt.MinCost).Hash("admin123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestPasswordPolicy_Validate(t *testing.T) {
	p := auth.PasswordPolicy{MinLength: 6}

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "minimum length", password: "abc123"},
		{name: "too short", password: "abc12", wantErr: true},
		{name: "multibyte counted as characters", password: "äöüäöü"},
		{name: "longer than bcrypt accepts", password: strings.Repeat("x", 73), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.password)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr *apperr.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, "password", vErr.Field)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, auth.ValidateEmail("admin@acmclub.com"))
	assert.Error(t, auth.ValidateEmail("not-an-email"))
	assert.Error(t, auth.ValidateEmail("Admin <admin@acmclub.com>"))
	assert.Error(t, auth.ValidateEmail(""))
}
