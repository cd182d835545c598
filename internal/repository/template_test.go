// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/repository"
	"codeberg.org/acmclub/certificates/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertTemplate(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	w := testutil.NewTestWorkshop(t, repo, "React")

	tmpl := &models.Template{WorkshopID: w.ID, ImageURL: "https://cdn.example.com/a.png"}
	tmpl.SetPlaceholders(models.DefaultNamePlaceholder, models.DefaultCodePlaceholder)

	first, err := repo.UpsertTemplate(ctx, tmpl)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNamePlaceholder, first.NamePlaceholder())

	tmpl.ImageURL = "https://cdn.example.com/b.png"
	tmpl.SetPlaceholders(models.Placeholder{X: 10, Y: 20, FontSize: 48}, models.DefaultCodePlaceholder)

	second, err := repo.UpsertTemplate(ctx, tmpl)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "https://cdn.example.com/b.png", second.ImageURL)
	assert.Equal(t, models.Placeholder{X: 10, Y: 20, FontSize: 48}, second.NamePlaceholder())
}

func TestUpsertTemplate_UnknownWorkshop(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.UpsertTemplate(context.Background(), &models.Template{WorkshopID: "missing"})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteTemplate(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	w := testutil.NewTestWorkshop(t, repo, "React")
	_, err := repo.UpsertTemplate(ctx, &models.Template{WorkshopID: w.ID})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTemplate(ctx, w.ID))

	_, err = repo.GetTemplate(ctx, w.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTemplate(ctx, w.ID), repository.ErrNotFound)
}
