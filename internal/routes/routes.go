package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/dharmateja03/GoodTurkey/internal/auth"
	"github.com/dharmateja03/GoodTurkey/internal/handlers"
	"github.com/dharmateja03/GoodTurkey/internal/middleware"
)

// Handlers groups the API handlers
type Handlers struct {
	Auth       *handlers.AuthHandler
	Sites      *handlers.SiteHandler
	Windows    *handlers.WindowHandler
	Categories *handlers.CategoryHandler
	Sync       *handlers.SyncHandler
}

// RegisterRoutes registers all /api routes on router
func RegisterRoutes(router chi.Router, h Handlers, tokenManager *auth.TokenManager) {
	router.Route("/api", func(api chi.Router) {
		// Public routes - no authentication required
		api.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(middleware.DefaultAuthRateLimit()))
			r.Post("/auth/register", h.Auth.Register)
			r.Post("/auth/login", h.Auth.Login)
		})

		// Protected routes - authentication required
		api.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(tokenManager))

			r.With(middleware.RateLimitByUser(middleware.DefaultAttemptRateLimit())).
				Post("/sites/attempt", h.Sites.Attempt)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByUser(middleware.DefaultAPIRateLimit()))

				r.Get("/sync", h.Sync.Get)

				r.Route("/sites", func(r chi.Router) {
					r.Get("/", h.Sites.List)
					r.Post("/", h.Sites.Create)
					r.Get("/{id}", h.Sites.Get)
					r.Put("/{id}", h.Sites.Update)
					r.Delete("/{id}", h.Sites.Delete)
					r.Post("/{id}/request-unlock", h.Sites.RequestUnlock)
					r.Post("/{id}/cancel-unlock", h.Sites.CancelUnlock)
				})

				r.Post("/time-windows", h.Windows.Create)
				r.Delete("/time-windows/{id}", h.Windows.Delete)

				r.Route("/categories", func(r chi.Router) {
					r.Get("/", h.Categories.List)
					r.Post("/", h.Categories.Create)
					r.Put("/{id}", h.Categories.Update)
					r.Delete("/{id}", h.Categories.Delete)
				})
			})
		})
	})
}
