// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/services/certificate"
	"github.com/labstack/echo/v4"
)

// CertificateHandlers contains the public verification and admin
// certificate endpoints.
type CertificateHandlers struct {
	certs *certificate.Service
}

func NewCertificates(certs *certificate.Service) *CertificateHandlers {
	return &CertificateHandlers{certs: certs}
}

// Verify is the public lookup by certificate or verification code.
func (h *CertificateHandlers) Verify(c echo.Context) error {
	view, err := h.certs.Verify(c.Request().Context(), c.Param("code"))
	if err != nil {
		return withEntity(EntityCertificate, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Search lists a recipient's certificates by email.
func (h *CertificateHandlers) Search(c echo.Context) error {
	views, err := h.certs.SearchByEmail(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return err
	}
	if views == nil {
		views = []models.VerificationView{}
	}
	return c.JSON(http.StatusOK, views)
}

func (h *CertificateHandlers) Create(c echo.Context) error {
	var in certificate.CreateInput
	if err := bind(c, &in); err != nil {
		return err
	}

	cert, err := h.certs.Create(c.Request().Context(), in)
	if err != nil {
		return withEntity(EntityWorkshop, err)
	}
	return c.JSON(http.StatusCreated, cert.AdminView())
}

// BulkCreate issues a batch of certificates for one workshop atomically.
func (h *CertificateHandlers) BulkCreate(c echo.Context) error {
	var in certificate.BulkInput
	if err := bind(c, &in); err != nil {
		return err
	}

	certs, err := h.certs.BulkCreate(c.Request().Context(), in)
	if err != nil {
		return withEntity(EntityWorkshop, err)
	}
	return c.JSON(http.StatusCreated, adminViews(certs))
}

func (h *CertificateHandlers) List(c echo.Context) error {
	skip, limit, err := page(c)
	if err != nil {
		return err
	}

	certs, err := h.certs.List(c.Request().Context(), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminViews(certs))
}

func (h *CertificateHandlers) Stats(c echo.Context) error {
	stats, err := h.certs.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *CertificateHandlers) Get(c echo.Context) error {
	cert, err := h.certs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return withEntity(EntityCertificate, err)
	}
	return c.JSON(http.StatusOK, cert.AdminView())
}

func (h *CertificateHandlers) Update(c echo.Context) error {
	var in certificate.UpdateInput
	if err := bind(c, &in); err != nil {
		return err
	}

	cert, err := h.certs.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return withEntity(EntityCertificate, err)
	}
	return c.JSON(http.StatusOK, cert.AdminView())
}

func (h *CertificateHandlers) Delete(c echo.Context) error {
	if err := h.certs.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return withEntity(EntityCertificate, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Certificate deleted successfully"})
}

func adminViews(certs []models.Certificate) []models.CertificateView {
	views := make([]models.CertificateView, len(certs))
	for i := range certs {
		views[i] = certs[i].AdminView()
	}
	return views
}
