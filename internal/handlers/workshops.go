// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/services/workshop"
	"github.com/labstack/echo/v4"
)

// WorkshopHandlers contains the workshop endpoints.
type WorkshopHandlers struct {
	workshops *workshop.Service
}

func NewWorkshops(workshops *workshop.Service) *WorkshopHandlers {
	return &WorkshopHandlers{workshops: workshops}
}

func (h *WorkshopHandlers) List(c echo.Context) error {
	skip, limit, err := page(c)
	if err != nil {
		return err
	}

	list, err := h.workshops.List(c.Request().Context(), skip, limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.Workshop{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *WorkshopHandlers) Get(c echo.Context) error {
	w, err := h.workshops.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return withEntity(EntityWorkshop, err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WorkshopHandlers) Create(c echo.Context) error {
	var in workshop.CreateInput
	if err := bind(c, &in); err != nil {
		return err
	}

	w, err := h.workshops.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *WorkshopHandlers) Update(c echo.Context) error {
	var in workshop.UpdateInput
	if err := bind(c, &in); err != nil {
		return err
	}

	w, err := h.workshops.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return withEntity(EntityWorkshop, err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WorkshopHandlers) Delete(c echo.Context) error {
	if err := h.workshops.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return withEntity(EntityWorkshop, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Workshop deleted successfully"})
}

// Certificates lists the certificates issued for a workshop.
func (h *WorkshopHandlers) Certificates(c echo.Context) error {
	certs, err := h.workshops.Certificates(c.Request().Context(), c.Param("id"))
	if err != nil {
		return withEntity(EntityWorkshop, err)
	}
	return c.JSON(http.StatusOK, adminViews(certs))
}
