// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package template stores the certificate layout of each workshop.
package template

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/repository"
)

const maxFontSize = 200

// PutInput replaces a workshop's template. Missing placeholders take the
// default layout.
type PutInput struct {
	ImageURL string              `json:"image_url" validate:"omitempty,url"`
	Name     *models.Placeholder `json:"name"`
	Code     *models.Placeholder `json:"code"`
}

type Service struct {
	repo *repository.Repository
}

func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the template of a workshop or repository.ErrNotFound.
func (s *Service) Get(ctx context.Context, workshopID string) (*models.Template, error) {
	return s.repo.GetTemplate(ctx, workshopID)
}

// Put creates or replaces the template of a workshop.
func (s *Service) Put(ctx context.Context, workshopID string, in PutInput) (*models.Template, error) {
	name := models.DefaultNamePlaceholder
	if in.Name != nil {
		name = *in.Name
	}
	code := models.DefaultCodePlaceholder
	if in.Code != nil {
		code = *in.Code
	}

	if err := validatePlaceholder("name", name); err != nil {
		return nil, err
	}
	if err := validatePlaceholder("code", code); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetWorkshop(ctx, workshopID); err != nil {
		return nil, err
	}

	t := &models.Template{
		WorkshopID: workshopID,
		ImageURL:   strings.TrimSpace(in.ImageURL),
	}
	t.SetPlaceholders(name, code)

	stored, err := s.repo.UpsertTemplate(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	slog.Info("template_saved", "workshop_id", workshopID)
	return stored, nil
}

// Delete removes the template of a workshop.
func (s *Service) Delete(ctx context.Context, workshopID string) error {
	if err := s.repo.DeleteTemplate(ctx, workshopID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	slog.Info("template_deleted", "workshop_id", workshopID)
	return nil
}

func validatePlaceholder(field string, p models.Placeholder) error {
	switch {
	case !inRange(p.X, 0, 100):
		return apperr.Invalid(field+".x", "must be between 0 and 100")
	case !inRange(p.Y, 0, 100):
		return apperr.Invalid(field+".y", "must be between 0 and 100")
	case !(p.FontSize > 0 && p.FontSize <= maxFontSize):
		return apperr.Invalid(field+".fontSize", "must be greater than 0 and at most %d", maxFontSize)
	}
	return nil
}

// inRange is false for NaN.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
