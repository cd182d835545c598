// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/acmclub/certificates/internal/models"
	"github.com/google/uuid"
)

const workshopColumns = `id, title, date, description, level, instructor, image, created_at, updated_at`

// CreateWorkshop inserts a new workshop.
func (r *Repository) CreateWorkshop(ctx context.Context, w *models.Workshop) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Level == "" {
		w.Level = models.LevelBeginner
	}
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = w.CreatedAt

	_, err := r.exec(ctx,
		`INSERT INTO workshops (`+workshopColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Title, w.Date, Nullable(w.Description), w.Level, w.Instructor, Nullable(w.Image), w.CreatedAt, w.UpdatedAt)
	return err
}

// GetWorkshop retrieves a workshop by ID.
func (r *Repository) GetWorkshop(ctx context.Context, id string) (*models.Workshop, error) {
	var w models.Workshop
	if err := r.get(ctx, &w, `SELECT `+workshopColumns+` FROM workshops WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWorkshops returns a page of workshops, newest first.
func (r *Repository) ListWorkshops(ctx context.Context, skip, limit int) ([]models.Workshop, error) {
	workshops := []models.Workshop{}
	err := r.selectAll(ctx, &workshops,
		`SELECT `+workshopColumns+` FROM workshops ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, skip)
	if err != nil {
		return nil, err
	}
	return workshops, nil
}

// UpdateWorkshop applies changes and returns the stored row.
func (r *Repository) UpdateWorkshop(ctx context.Context, id string, c Changes) (*models.Workshop, error) {
	var updated *models.Workshop
	err := r.WithTx(ctx, func(tx *Repository) error {
		if err := tx.updateOne(ctx, "workshops", id, c, time.Now().UTC()); err != nil {
			return err
		}
		var err error
		updated, err = tx.GetWorkshop(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteWorkshop deletes a workshop. Links and its template go with it.
func (r *Repository) DeleteWorkshop(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM workshops WHERE id = ?`, id)
}

// CountWorkshops returns the total number of workshops.
func (r *Repository) CountWorkshops(ctx context.Context) (int64, error) {
	var count int64
	err := r.get(ctx, &count, `SELECT COUNT(*) FROM workshops`)
	return count, err
}
