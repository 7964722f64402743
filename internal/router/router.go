// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router wires all HTTP routes and middleware chains for
// Shiplog: the admin JSON API under /admin/api and the theme-served
// public site.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"shiplog/internal/handlers"
	"shiplog/internal/middleware"
	"shiplog/internal/session"
)

// New creates the configured Chi router with all middleware and route
// groups wired up.
func New(sessionStore *session.Store, auth *handlers.Auth, themeH *handlers.Theme, statusH *handlers.Status, eventH *handlers.Event, public *handlers.Public, secureCookies bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Admin API — CSRF-protected, credential-gated.
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(secureCookies))

		// Login is throttled to blunt credential stuffing.
		loginLimiter := middleware.NewRateLimiter(10, time.Minute)
		r.With(loginLimiter.Middleware).Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		// 2FA endpoints need a session but not completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
		})

		// Fully authenticated admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/me", auth.Me)

			// Theme install and introspection.
			r.Route("/theme", func(r chi.Router) {
				r.Post("/install", themeH.Install)
				r.Get("/current", themeH.Current)
				r.Get("/manifest", themeH.Manifest)
				r.Post("/resync", themeH.Resync)

				r.Get("/mappings", themeH.MappingsList)
				r.Put("/mappings", themeH.MappingSet)
				r.Delete("/mappings/{statusID}", themeH.MappingDelete)

				r.Get("/settings", themeH.SettingsGet)
				r.Put("/settings", themeH.SettingsPut)
			})

			// Workflow statuses.
			r.Route("/statuses", func(r chi.Router) {
				r.Get("/", statusH.List)
				r.Post("/", statusH.Create)
				r.Put("/{id}", statusH.Rename)
				r.Put("/{id}/reorder", statusH.Reorder)
				r.Delete("/{id}", statusH.Delete)

				r.Get("/notify", statusH.NotifyList)
				r.Put("/notify", statusH.NotifySet)
			})

			// Changelog events.
			r.Route("/events", func(r chi.Router) {
				r.Get("/", eventH.List)
				r.Post("/", eventH.Create)
				r.Get("/{id}", eventH.Get)
				r.Put("/{id}", eventH.Update)
				r.Delete("/{id}", eventH.Delete)
			})
		})
	})

	// Public JSON endpoints consumed by the theme bundle.
	r.Get("/api/changelog", public.Changelog)
	r.Get("/api/theme-settings", public.ThemeSettings)

	// Everything else is the theme bundle's static site.
	r.NotFound(public.Site)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
