// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"fmt"
	"io"
	"net/http"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/services/storage"
	"codeberg.org/acmclub/certificates/internal/services/template"
	"github.com/labstack/echo/v4"
)

// EventHandlers contains the per-workshop image and template endpoints.
// Workshops are called events in these routes.
type EventHandlers struct {
	images    *storage.ImageService
	templates *template.Service
}

func NewEvents(images *storage.ImageService, templates *template.Service) *EventHandlers {
	return &EventHandlers{images: images, templates: templates}
}

// UploadResponse is returned for a stored image.
type UploadResponse struct {
	URL string `json:"url"`
}

// ImagesResponse lists the images of an event.
type ImagesResponse struct {
	Images []string `json:"images"`
}

// UploadImage stores the multipart "file" field.
func (h *EventHandlers) UploadImage(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Invalid("file", "is required")
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	// One byte past the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(src, storage.MaxImageSize+1))
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	url, err := h.images.Upload(c.Request().Context(), c.Param("event_id"), fh.Filename, fh.Header.Get(echo.HeaderContentType), data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, UploadResponse{URL: url})
}

func (h *EventHandlers) ListImages(c echo.Context) error {
	urls, err := h.images.List(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ImagesResponse{Images: urls})
}

func (h *EventHandlers) DeleteImage(c echo.Context) error {
	if err := h.images.Delete(c.Request().Context(), c.Param("event_id"), c.Param("filename")); err != nil {
		return withEntity(EntityImage, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Image deleted"})
}

func (h *EventHandlers) GetTemplate(c echo.Context) error {
	t, err := h.templates.Get(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return withEntity(EntityTemplate, err)
	}
	return c.JSON(http.StatusOK, t.View())
}

func (h *EventHandlers) PutTemplate(c echo.Context) error {
	var in template.PutInput
	if err := bind(c, &in); err != nil {
		return err
	}

	t, err := h.templates.Put(c.Request().Context(), c.Param("event_id"), in)
	if err != nil {
		return withEntity(EntityWorkshop, err)
	}
	return c.JSON(http.StatusOK, t.View())
}

func (h *EventHandlers) DeleteTemplate(c echo.Context) error {
	if err := h.templates.Delete(c.Request().Context(), c.Param("event_id")); err != nil {
		return withEntity(EntityTemplate, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Template deleted"})
}
