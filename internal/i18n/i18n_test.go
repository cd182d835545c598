// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"codeberg.org/acmclub/certificates/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInit(t *testing.T) {
	require.NoError(t, i18n.Init())
	require.NoError(t, i18n.Init())
}

func TestT(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "Not authenticated", i18n.T(ctx, "error_unauthorized"))
}

func TestT_German(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.German)

	assert.Equal(t, "Nicht angemeldet", i18n.T(ctx, "error_unauthorized"))
}

func TestT_UnknownKey(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	// Should return the key itself for unknown messages
	result := i18n.T(ctx, "unknown_key_that_does_not_exist")
	assert.Equal(t, "unknown_key_that_does_not_exist", result)
}

func TestT_NoLocaleContext(t *testing.T) {
	result := i18n.T(context.Background(), "app_name")

	assert.Equal(t, "ACM Certificate System", result)
}

func TestTData(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), language.German)

	result := i18n.TData(ctx, "error_not_found", map[string]any{"Entity": "Zertifikat"})

	assert.Equal(t, "Zertifikat nicht gefunden", result)
}

func TestGetLocale(t *testing.T) {
	assert.Equal(t, "en", i18n.GetLocale(context.Background()))

	ctx := i18n.WithLocale(context.Background(), language.German)
	assert.Equal(t, "de", i18n.GetLocale(ctx))

	ctx = i18n.WithLocale(context.Background(), i18n.MatchLanguage("de-AT,de;q=0.9"))
	assert.Equal(t, "de", i18n.GetLocale(ctx))
}

func TestSupported(t *testing.T) {
	require.NoError(t, i18n.Init())

	for _, tag := range i18n.Supported {
		ctx := i18n.WithLocale(context.Background(), tag)
		assert.NotEqual(t, "app_name", i18n.T(ctx, "app_name"), "missing app_name for %s", tag)
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		header string
		base   string
	}{
		{"de-DE,de;q=0.9,en;q=0.8", "de"},
		{"en-US", "en"},
		{"fr-FR", "en"},
		{"", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			base, _ := i18n.MatchLanguage(tt.header).Base()
			assert.Equal(t, tt.base, base.String())
		})
	}
}
