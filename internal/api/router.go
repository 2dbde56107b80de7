package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Eyoab11/kuriftu/internal/api/middleware"
	"github.com/Eyoab11/kuriftu/internal/config"
	"github.com/Eyoab11/kuriftu/internal/handlers"
	"github.com/Eyoab11/kuriftu/internal/push"
	"github.com/Eyoab11/kuriftu/internal/session"
	"github.com/Eyoab11/kuriftu/internal/store"
)

// sendLimitPerMinute caps how many chat sends a single guest can make.
const sendLimitPerMinute = 30

// NewRouter creates and configures the HTTP router. redisStore may be nil
// in development; the send rate limiter is skipped without it.
func NewRouter(cfg *config.Config, logger zerolog.Logger, dataStore store.DataStore, tokens store.TokenStore, broker push.Broker, sessions *session.Manager, redisStore *store.RedisStore) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - the feedback SPA is served from a separate origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create handler and auth middleware
	h := handlers.NewHandler(cfg, dataStore, tokens, broker, sessions, redisStore, logger)
	auth := middleware.NewAuthMiddleware(tokens, dataStore)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/health", h.Health)
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/logout", h.Logout)
		r.Post("/chat/open", h.OpenChat)
		r.Get("/chat/state", h.ChatState)
		r.Get("/chat/events", h.ChatEvents)
		r.Post("/chat/close", h.CloseChat)

		// Write endpoints carry the per-guest send limit when Redis is up
		r.Group(func(r chi.Router) {
			if redisStore != nil {
				limiter := middleware.NewSendRateLimiter(redisStore, logger, sendLimitPerMinute)
				r.Use(limiter.Middleware)
			}
			r.Post("/chat/message", h.SendChatMessage)
			r.Post("/feedback", h.SubmitFeedback)
		})
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Use(auth.RequireAdmin)

		r.Get("/admin/rooms", h.ListRooms)
		r.Post("/admin/rooms/{id}/message", h.AdminReply)
	})

	return r
}
