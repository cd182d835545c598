// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"testing"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Website  string   `json:"website,omitempty" validate:"omitempty,url"`
	Tags     []string `json:"tags" validate:"max=2"`
	Profile  profile  `json:"profile"`
}

type profile struct {
	Name string `json:"full_name" validate:"max=5"`
}

func validSignup() signup {
	return signup{Email: "admin@example.com", Password: "secret123"}
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*signup)
		wantField   string
		wantMessage string
	}{
		{
			name:        "required",
			mutate:      func(s *signup) { s.Email = "" },
			wantField:   "email",
			wantMessage: "is required",
		},
		{
			name:        "email",
			mutate:      func(s *signup) { s.Email = "not-an-email" },
			wantField:   "email",
			wantMessage: "must be a valid email address",
		},
		{
			name:        "min length",
			mutate:      func(s *signup) { s.Password = "short" },
			wantField:   "password",
			wantMessage: "must be at least 8 characters",
		},
		{
			name:        "url",
			mutate:      func(s *signup) { s.Website = "nope" },
			wantField:   "website",
			wantMessage: "must be a valid URL",
		},
		{
			name:        "slice max",
			mutate:      func(s *signup) { s.Tags = []string{"a", "b", "c"} },
			wantField:   "tags",
			wantMessage: "must contain at most 2 items",
		},
		{
			name:        "nested field uses json path",
			mutate:      func(s *signup) { s.Profile.Name = "Ada Lovelace" },
			wantField:   "profile.full_name",
			wantMessage: "must be at most 5 characters",
		},
	}

	v := handlers.NewValidator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validSignup()
			tt.mutate(&input)

			err := v.Validate(input)

			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, tt.wantMessage, ve.Message)
		})
	}
}

func TestValidator_Valid(t *testing.T) {
	assert.NoError(t, handlers.NewValidator().Validate(validSignup()))
}
