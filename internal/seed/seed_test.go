// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package seed_test

import (
	"context"
	"testing"

	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/seed"
	"codeberg.org/acmclub/certificates/internal/services/certificate"
	"codeberg.org/acmclub/certificates/internal/services/workshop"
	"codeberg.org/acmclub/certificates/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	api := config.APIConfig{DefaultPageSize: 100, MaxPageSize: 1000}
	workshops := workshop.NewService(repo, api)
	certs := certificate.NewService(repo, api, config.CertificateConfig{CodePrefix: "ACM"})
	ctx := context.Background()

	res, err := seed.Run(ctx, workshops, certs)

	require.NoError(t, err)
	assert.Equal(t, seed.Result{Workshops: 3, Certificates: 2}, res)

	view, err := certs.Verify(ctx, "ACM-2024-REACT001")
	require.NoError(t, err)
	assert.Equal(t, "Alex Johnson", view.RecipientName)
	assert.True(t, view.IsVerified)

	list, err := workshops.List(ctx, 0, 0)
	require.NoError(t, err)
	var reactID string
	for _, w := range list {
		if w.Title == "Advanced React Patterns" {
			reactID = w.ID
		}
	}
	linked, err := workshops.Certificates(ctx, reactID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "ACM-2024-REACT001", linked[0].Code)
}

func TestRun_Idempotent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	api := config.APIConfig{DefaultPageSize: 100, MaxPageSize: 1000}
	workshops := workshop.NewService(repo, api)
	certs := certificate.NewService(repo, api, config.CertificateConfig{CodePrefix: "ACM"})
	ctx := context.Background()

	_, err := seed.Run(ctx, workshops, certs)
	require.NoError(t, err)

	res, err := seed.Run(ctx, workshops, certs)

	require.NoError(t, err)
	assert.Equal(t, seed.Result{}, res)
}
