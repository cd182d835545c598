// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/models"
	authsvc "codeberg.org/acmclub/certificates/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for admin authentication.
type AuthHandlers struct {
	auth *authsvc.Service
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(auth *authsvc.Service) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the request body for POST /api/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// InitAdminResponse is returned after the bootstrap admin was created.
type InitAdminResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Admin   models.AdminView `json:"admin"`
}

// Login exchanges credentials for an access token.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, token)
}

// Register creates another admin. Whether it is reachable, and by whom,
// depends on the registration mode the routes were set up with.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	admin, err := h.auth.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, admin.View())
}

// InitAdmin creates the configured bootstrap admin once.
func (h *AuthHandlers) InitAdmin(c echo.Context) error {
	admin, err := h.auth.InitAdmin(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, InitAdminResponse{
		Success: true,
		Message: "Admin initialized successfully",
		Admin:   admin.View(),
	})
}

// Me returns the authenticated admin.
func (h *AuthHandlers) Me(c echo.Context) error {
	admin := currentAdmin(c)
	if admin == nil {
		return authsvc.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, admin.View())
}

// ChangePassword replaces the authenticated admin's password.
func (h *AuthHandlers) ChangePassword(c echo.Context) error {
	admin := currentAdmin(c)
	if admin == nil {
		return authsvc.ErrUnauthorized
	}

	var req ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err := h.auth.ChangePassword(c.Request().Context(), admin.ID, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, authsvc.ErrInvalidCredentials) {
		// A 401 here would read as an expired session.
		return apperr.Invalid("current_password", "is incorrect")
	}
	if err != nil {
		return withEntity(EntityAdmin, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Password changed"})
}

// Deactivate disables another admin account.
func (h *AuthHandlers) Deactivate(c echo.Context) error {
	if err := h.auth.Deactivate(c.Request().Context(), currentAdmin(c), c.Param("id")); err != nil {
		return withEntity(EntityAdmin, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Admin deactivated"})
}
