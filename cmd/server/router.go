package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskmanager-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskmanager-api/internal/api/middleware"
	"github.com/phrazzld/taskmanager-api/internal/api/shared"
)

const msgEndpointNotFound = "API endpoint not found"

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if app.config.Server.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(chimw.SetHeader("X-Frame-Options", "DENY"))
	r.Use(chimw.SetHeader("Referrer-Policy", "no-referrer"))
	r.Use(chimw.Compress(5))

	authHandler := api.NewAuthHandler(app.userService)
	taskHandler := api.NewTaskHandler(app.taskService)
	healthHandler := api.NewHealthHandler(app.health, app.config.Server.Environment)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.userStore)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, msgEndpointNotFound)
	})

	r.Route("/api", func(r chi.Router) {
		// Health stays reachable while the database is down.
		r.Get("/health", healthHandler.Health)

		r.Group(func(r chi.Router) {
			if app.config.RateLimit.Enabled && app.limiter != nil {
				window := time.Duration(app.config.RateLimit.WindowMinutes) * time.Minute
				r.Use(apiMiddleware.NewRateLimiter(
					app.limiter, app.config.RateLimit.Requests, window, app.logger,
				).Handler)
			}
			r.Use(apiMiddleware.DatabaseGuard(app.health, app.config.Server.IsTest()))

			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)

				r.Get("/auth/profile", authHandler.Profile)

				r.Get("/tasks", taskHandler.List)
				r.Post("/tasks", taskHandler.Create)
				r.Get("/tasks/stats", taskHandler.Stats)
				r.Get("/tasks/{id}", taskHandler.Get)
				r.Put("/tasks/{id}", taskHandler.Update)
				r.Delete("/tasks/{id}", taskHandler.Delete)
			})
		})
	})

	return r
}
