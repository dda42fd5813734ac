package router

import (
	"net/http"
	"time"

	"gamehub-api/internal/handler"
	"gamehub-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Config holds the handlers and middleware dependencies for the router.
type Config struct {
	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Game   *handler.GameHandler
	Social *handler.SocialHandler

	Authenticator func(http.Handler) http.Handler
	UploadDir     string
}

// New builds the HTTP routing tree.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(cfg.Authenticator)

	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)

	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", cfg.Health.Health)
		r.Get("/ready", cfg.Health.Ready)

		r.Route("/auth", func(r chi.Router) {
			authLimit := httprate.LimitByIP(10, time.Minute)
			r.With(authLimit).Post("/register", cfg.Auth.Register)
			r.With(authLimit).Post("/login", cfg.Auth.Login)
			r.With(middleware.RequireUser).Post("/logout", cfg.Auth.Logout)
		})

		r.With(middleware.RequireUser).Get("/profile", cfg.Auth.Profile)

		r.Route("/games", func(r chi.Router) {
			r.Get("/", cfg.Game.List)
			r.Get("/popular", cfg.Game.Popular)
			r.Get("/best-rated", cfg.Game.BestRated)
			r.Get("/{id}", cfg.Game.Get)
			r.Get("/{id}/comments", cfg.Social.ListComments)
			r.Get("/{id}/stats", cfg.Social.Stats)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/", cfg.Game.Create)
				r.Put("/{id}", cfg.Game.Update)
				r.Delete("/{id}", cfg.Game.Delete)
				r.Post("/{id}/comments", cfg.Social.AddComment)
				r.Post("/{id}/rate", cfg.Social.Rate)

				engagement := httprate.LimitByIP(60, time.Minute)
				r.With(engagement).Post("/{id}/like", cfg.Social.Vote)
				r.With(engagement).Post("/{id}/play", cfg.Social.Play)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Put("/{id}", cfg.Social.EditComment)
			r.Delete("/{id}", cfg.Social.DeleteComment)
		})

		r.Route("/moderation", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", cfg.Game.ModerationQueue)
			r.Get("/count", cfg.Game.PendingCount)
			r.Post("/{id}", cfg.Game.Moderate)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", cfg.User.List)
			r.Post("/", cfg.User.Create)
			r.Get("/{id}", cfg.User.Get)
			r.Put("/{id}", cfg.User.Update)
			r.Post("/{id}/toggle-active", cfg.User.ToggleActive)
			r.Delete("/{id}", cfg.User.Delete)
		})
	})

	return r
}
