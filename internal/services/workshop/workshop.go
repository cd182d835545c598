// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package workshop manages workshop metadata.
package workshop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/patch"
	"codeberg.org/acmclub/certificates/internal/repository"
)

// CreateInput holds the fields of a new workshop.
type CreateInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Date        string  `json:"date" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Level       string  `json:"level" validate:"omitempty,max=50"`
	Instructor  string  `json:"instructor" validate:"required,max=200"`
	Image       *string `json:"image" validate:"omitempty,url"`
}

// UpdateInput is a partial update. Only fields present in the request are
// applied; null clears description and image.
type UpdateInput struct {
	Title       patch.Field[string] `json:"title"`
	Date        patch.Field[string] `json:"date"`
	Description patch.Field[string] `json:"description"`
	Level       patch.Field[string] `json:"level"`
	Instructor  patch.Field[string] `json:"instructor"`
	Image       patch.Field[string] `json:"image"`
}

type Service struct {
	repo *repository.Repository
	api  config.APIConfig
}

func NewService(repo *repository.Repository, api config.APIConfig) *Service {
	return &Service{repo: repo, api: api}
}

// Create stores a new workshop. Level defaults to Beginner.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Workshop, error) {
	w := &models.Workshop{
		Title:       strings.TrimSpace(in.Title),
		Date:        strings.TrimSpace(in.Date),
		Description: in.Description,
		Level:       strings.TrimSpace(in.Level),
		Instructor:  strings.TrimSpace(in.Instructor),
		Image:       in.Image,
	}

	switch {
	case w.Title == "":
		return nil, apperr.Invalid("title", "must not be empty")
	case w.Date == "":
		return nil, apperr.Invalid("date", "must not be empty")
	case w.Instructor == "":
		return nil, apperr.Invalid("instructor", "must not be empty")
	}

	if err := s.repo.CreateWorkshop(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create workshop: %w", err)
	}

	slog.Info("workshop_created", "workshop_id", w.ID, "title", w.Title)
	return w, nil
}

// Get returns a workshop or repository.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.Workshop, error) {
	return s.repo.GetWorkshop(ctx, id)
}

// List returns a page of workshops, newest first.
func (s *Service) List(ctx context.Context, skip, limit int) ([]models.Workshop, error) {
	skip, limit = s.api.Page(skip, limit)
	return s.repo.ListWorkshops(ctx, skip, limit)
}

// Update applies the fields present in the input.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Workshop, error) {
	var c repository.Changes

	required := []struct {
		column string
		field  patch.Field[string]
	}{
		{"title", in.Title},
		{"date", in.Date},
		{"level", in.Level},
		{"instructor", in.Instructor},
	}
	for _, r := range required {
		if !r.field.Set {
			continue
		}
		value := strings.TrimSpace(r.field.Value)
		if r.field.Null || value == "" {
			return nil, apperr.Invalid(r.column, "must not be empty")
		}
		c.Set(r.column, value)
	}

	if in.Description.Set {
		c.Set("description", repository.Nullable(in.Description.Ptr()))
	}
	if in.Image.Set {
		c.Set("image", repository.Nullable(in.Image.Ptr()))
	}

	w, err := s.repo.UpdateWorkshop(ctx, id, c)
	if err != nil {
		return nil, fmt.Errorf("failed to update workshop: %w", err)
	}

	slog.Info("workshop_updated", "workshop_id", id, "fields", c.Len())
	return w, nil
}

// Delete removes a workshop together with its certificate links and
// template. Certificates themselves are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteWorkshop(ctx, id); err != nil {
		return fmt.Errorf("failed to delete workshop: %w", err)
	}

	slog.Info("workshop_deleted", "workshop_id", id)
	return nil
}

// Certificates lists the certificates issued for a workshop.
func (s *Service) Certificates(ctx context.Context, id string) ([]models.Certificate, error) {
	if _, err := s.repo.GetWorkshop(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListWorkshopCertificates(ctx, id)
}
