// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/handlers"
	"codeberg.org/acmclub/certificates/internal/middleware"
	authsvc "codeberg.org/acmclub/certificates/internal/services/auth"
	"codeberg.org/acmclub/certificates/internal/services/certificate"
	"codeberg.org/acmclub/certificates/internal/services/storage"
	"codeberg.org/acmclub/certificates/internal/services/template"
	"codeberg.org/acmclub/certificates/internal/services/workshop"
	"github.com/labstack/echo/v4"
)

// routerDeps holds dependencies needed to set up routes.
type routerDeps struct {
	cfg          *config.Config
	db           handlers.Pinger
	auth         *authsvc.Service
	workshops    *workshop.Service
	certificates *certificate.Service
	templates    *template.Service
	images       *storage.ImageService
	localStore   *storage.LocalStore
}

// setupRoutes registers the API. Reads are public, mutations go through the
// admin gate.
func setupRoutes(e *echo.Echo, deps *routerDeps) {
	requireAdmin := middleware.RequireAdmin(deps.auth)

	h := handlers.New(deps.db, Version)
	e.GET("/health", h.Health)
	e.GET("/", h.Root)

	if deps.localStore != nil {
		e.Static(storage.UploadsPath, deps.localStore.Dir())
	}

	api := e.Group("/api")

	// Auth
	authH := handlers.NewAuth(deps.auth)
	authG := api.Group("/auth")
	authG.POST("/login", authH.Login)
	authG.POST("/init-admin", authH.InitAdmin)
	switch deps.cfg.Auth.RegistrationMode {
	case config.RegistrationAdmin:
		authG.POST("/register", authH.Register, requireAdmin)
	default:
		// The service itself rejects registration in closed mode.
		authG.POST("/register", authH.Register)
	}
	authG.GET("/me", authH.Me, requireAdmin)
	authG.POST("/password", authH.ChangePassword, requireAdmin)
	authG.POST("/admins/:id/deactivate", authH.Deactivate, requireAdmin)

	// Workshops
	workshopH := handlers.NewWorkshops(deps.workshops)
	workshops := api.Group("/workshops")
	workshops.GET("", workshopH.List)
	workshops.GET("/:id", workshopH.Get)
	workshops.POST("", workshopH.Create, requireAdmin)
	workshops.PATCH("/:id", workshopH.Update, requireAdmin)
	workshops.DELETE("/:id", workshopH.Delete, requireAdmin)
	workshops.GET("/:id/certificates", workshopH.Certificates, requireAdmin)

	// Certificates
	certH := handlers.NewCertificates(deps.certificates)
	certs := api.Group("/certificates")
	certs.GET("/verify/:code", certH.Verify)
	certs.GET("/search", certH.Search)
	certs.POST("", certH.Create, requireAdmin)

	admin := certs.Group("/admin", requireAdmin)
	admin.GET("/all", certH.List)
	admin.GET("/stats", certH.Stats)
	admin.POST("/bulk-create", certH.BulkCreate)
	admin.GET("/:id", certH.Get)
	admin.PATCH("/:id", certH.Update)
	admin.DELETE("/:id", certH.Delete)

	// Event images and templates
	eventH := handlers.NewEvents(deps.images, deps.templates)
	events := api.Group("/events/:event_id")
	events.GET("/images", eventH.ListImages)
	events.POST("/images", eventH.UploadImage, requireAdmin)
	events.DELETE("/images/:filename", eventH.DeleteImage, requireAdmin)
	events.GET("/template", eventH.GetTemplate)
	events.PUT("/template", eventH.PutTemplate, requireAdmin)
	events.DELETE("/template", eventH.DeleteTemplate, requireAdmin)
}
