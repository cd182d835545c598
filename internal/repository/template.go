// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/acmclub/certificates/internal/models"
	"github.com/google/uuid"
)

const templateColumns = `id, workshop_id, image_url, name_x, name_y, name_font_size,
	code_x, code_y, code_font_size, created_at, updated_at`

// GetTemplate retrieves the template of a workshop.
func (r *Repository) GetTemplate(ctx context.Context, workshopID string) (*models.Template, error) {
	var t models.Template
	err := r.get(ctx, &t,
		`SELECT `+templateColumns+` FROM certificate_templates WHERE workshop_id = ?`, workshopID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertTemplate inserts the template or replaces the stored layout of the
// workshop's existing one, then returns the stored row.
func (r *Repository) UpsertTemplate(ctx context.Context, t *models.Template) (*models.Template, error) {
	now := time.Now().UTC()
	_, err := r.exec(ctx,
		`INSERT INTO certificate_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (workshop_id) DO UPDATE SET
			image_url = excluded.image_url,
			name_x = excluded.name_x,
			name_y = excluded.name_y,
			name_font_size = excluded.name_font_size,
			code_x = excluded.code_x,
			code_y = excluded.code_y,
			code_font_size = excluded.code_font_size,
			updated_at = excluded.updated_at`,
		uuid.NewString(), t.WorkshopID, t.ImageURL, t.NameX, t.NameY, t.NameFontSize,
		t.CodeX, t.CodeY, t.CodeFontSize, now, now)
	if err != nil {
		return nil, err
	}
	return r.GetTemplate(ctx, t.WorkshopID)
}

// DeleteTemplate removes the template of a workshop.
func (r *Repository) DeleteTemplate(ctx context.Context, workshopID string) error {
	return r.execOne(ctx, `DELETE FROM certificate_templates WHERE workshop_id = ?`, workshopID)
}
