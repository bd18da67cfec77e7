package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/petermazzocco/precast-cms/internal/guard"
	"github.com/petermazzocco/precast-cms/internal/handlers"
	"github.com/petermazzocco/precast-cms/internal/logger"
	"github.com/petermazzocco/precast-cms/internal/objectstore"
)

func newRouter(h *handlers.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)

	limit := httprate.Limit(
		h.Config.RateLimitPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
	)

	r.Get("/health", h.Health)

	// Google sign-in
	if h.Config.GoogleEnabled() {
		r.Get("/auth/google", h.BeginGoogleAuth)
		r.Get("/auth/google/callback", h.GoogleCallback)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/admin-session", h.AdminSession)
		r.Post("/admin-logout", h.AdminLogout)
		r.Get("/gallery", h.ListGallery)
		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{id}", h.GetProject)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/admin-login", h.AdminLogin)
			r.Get("/seed-admin", h.SeedAdmin)
			r.Post("/contacts", h.CreateContact)
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(h.Sessions.RequireAdmin)
			r.With(limit).Post("/r2-upload", h.R2Upload)
			r.Delete("/r2-object", h.DeleteObject)
			r.Get("/r2-status", h.R2Status)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/contacts", h.ListContacts)
				r.Get("/gallery", h.AdminListGallery)
				r.With(limit).Post("/gallery", h.CreateGalleryImage)
				r.Delete("/gallery/{id}", h.DeleteGalleryImage)
				r.Get("/projects", h.AdminListProjects)
				r.With(limit).Post("/projects", h.CreateProject)
				r.Delete("/projects/{id}", h.DeleteProject)
			})
		})
	})

	if demo, ok := h.Bucket.(*objectstore.Demo); ok {
		r.Handle(objectstore.DemoRoute+"*", demo)
	}

	// Site and admin pages
	files := http.FileServer(http.Dir(h.Config.StaticDir))
	r.Get(guard.LoginPath, h.LoginPage)
	r.With(h.Sessions.RequireAdminPage).Handle("/admin", files)
	r.With(h.Sessions.RequireAdminPage).Handle("/admin/*", files)
	r.Handle("/*", files)

	return r
}
