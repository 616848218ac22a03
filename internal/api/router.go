package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aegis-secure/internal/api/handlers"
	apimiddleware "aegis-secure/internal/api/middleware"
	"aegis-secure/internal/config"
	"aegis-secure/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	sessions apimiddleware.SessionValidator
	limiter  apimiddleware.RateLimitChecker
	logger   *logger.Logger
}

// NewRouter creates a new Router instance; limiter may be nil when rate limiting is off
func NewRouter(cfg config.Config, h *handlers.Handlers, sessions apimiddleware.SessionValidator, limiter apimiddleware.RateLimitChecker, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		sessions: sessions,
		limiter:  limiter,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(apimiddleware.Metrics)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	rateLimited := func(next http.Handler) http.Handler { return next }
	if r.config.RateLimit.Enabled && r.limiter != nil {
		rateLimited = apimiddleware.RateLimiter(r.limiter, r.config.RateLimit, r.logger)
	}

	// Websocket upgrades must not sit behind the request timeout
	router.With(apimiddleware.BearerAuth(r.sessions)).Get("/ws/events", r.handlers.Events.Stream)

	router.Group(func(pub chi.Router) {
		pub.Use(middleware.Timeout(60 * time.Second))
		pub.Use(rateLimited)

		pub.Get("/", r.handlers.Health.Check)
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
		pub.Handle("/metrics", promhttp.Handler())

		// Public scoring endpoint
		pub.Post("/analyze-text", r.handlers.Analysis.AnalyzeText)

		// Provider redirect carries the signed state instead of a bearer token
		pub.Get("/oauth/google/callback", r.handlers.OAuth.Callback)
	})

	router.Group(func(api chi.Router) {
		// Mailbox fetches include classifier round trips per message
		api.Use(middleware.Timeout(5 * time.Minute))
		api.Use(apimiddleware.BearerAuth(r.sessions))
		api.Use(rateLimited)

		api.Get("/oauth/google/connect", r.handlers.OAuth.Connect)

		api.Route("/gmail", func(gmail chi.Router) {
			gmail.Post("/fetch-latest", r.handlers.Gmail.FetchLatest)
			gmail.Get("/messages", r.handlers.Gmail.Messages)
			gmail.Delete("/clear", r.handlers.Gmail.Clear)
		})

		api.Route("/sms", func(sms chi.Router) {
			sms.Post("/save", r.handlers.SMS.Save)
			sms.Post("/batch", r.handlers.SMS.Batch)
			sms.Get("/all", r.handlers.SMS.All)
			sms.Delete("/clear", r.handlers.SMS.Clear)
		})

		api.Route("/fcm", func(fcm chi.Router) {
			fcm.Post("/register", r.handlers.Profile.Register)
			fcm.Post("/set_pref", r.handlers.Profile.SetPreference)
			fcm.Get("/info", r.handlers.Profile.Info)
		})

		api.Get("/dashboard", r.handlers.Dashboard.Get)
	})

	return router
}
