// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// tyre marketplace API. Reads are public; listing writes require a seller
// token and catalog writes require an admin token.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tyremarket/internal/handlers"
	"tyremarket/internal/metrics"
	"tyremarket/internal/middleware"
	"tyremarket/internal/storage"
)

// Deps are the handler groups and middleware collaborators the router
// wires together.
type Deps struct {
	Tokens       middleware.TokenParser
	Sessions     middleware.SessionGetter
	LoginLimiter *middleware.RateLimiter
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer

	Auth    *handlers.Auth
	Tyres   *handlers.Tyres
	Catalog *handlers.Catalog
	Admin   *handlers.Admin

	// UploadDir, when set, is served under /uploads/.
	UploadDir   string
	CORSOrigins []string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger(d.Metrics))
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.TokenHeader},
		ExposedHeaders: []string{middleware.TokenHeader, handlers.ImageCleanupHeader},
		MaxAge:         300,
	}))

	requireAuth := middleware.RequireAuth(d.Tokens, d.Sessions)

	r.Get("/health", healthHandler)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if d.UploadDir != "" {
		r.Handle(storage.UploadsPath+"*", http.StripPrefix(storage.UploadsPath, http.FileServer(http.Dir(d.UploadDir))))
	}

	// Token login, rate limited per client.
	r.Route("/auth", func(r chi.Router) {
		login := http.HandlerFunc(d.Auth.Login)
		if d.LoginLimiter != nil {
			r.Method(http.MethodPost, "/", d.LoginLimiter.Middleware(login))
		} else {
			r.Post("/", login)
		}
		r.With(requireAuth).Delete("/", d.Auth.Logout)
	})

	r.Route("/tyres", func(r chi.Router) {
		r.Get("/", d.Tyres.List)
		r.Get("/{id}", d.Tyres.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireSeller)
			r.Post("/", d.Tyres.Create)
			r.Put("/{id}", d.Tyres.Update)
			r.Delete("/{id}", d.Tyres.Delete)
		})
	})

	// Catalog reads are public.
	r.Get("/categories", d.Catalog.ListCategories)
	r.Get("/categories/{id}", d.Catalog.GetCategory)
	r.Get("/manufacturers", d.Catalog.ListManufacturers)
	r.Get("/sellers/{id}", d.Catalog.GetSeller)

	// Catalog writes and maintenance, admin only.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireAdmin)
		r.Post("/categories", d.Catalog.CreateCategory)
		r.Post("/manufacturers", d.Catalog.CreateManufacturer)
		r.Post("/sellers", d.Catalog.CreateSeller)
		r.Post("/admin/reconcile", d.Admin.Reconcile)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
