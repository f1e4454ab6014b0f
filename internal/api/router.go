package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/danschewy/townhall/internal/api/middleware"
	"github.com/danschewy/townhall/internal/handlers"
)

// RouterConfig carries the router's tunables.
type RouterConfig struct {
	AllowedOrigins []string
	MaxJSONBytes   int64 // body cap for JSON endpoints
	MaxAudioBytes  int64 // body cap for the multipart audio upload
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, limiter *middleware.RateLimiter, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)

	r.Route("/rooms", func(r chi.Router) {
		r.With(middleware.MaxBodySize(cfg.MaxJSONBytes)).Group(func(r chi.Router) {
			r.Post("/", h.CreateRoom)
			r.Get("/{code}", h.GetRoom)
			r.Post("/{code}/join", h.Join)
			r.Post("/{code}/leave", h.Leave)
			r.Get("/{code}/poll", h.Poll)
		})
		// Audio uploads carry multipart payloads and get a larger cap.
		r.With(middleware.MaxBodySize(cfg.MaxAudioBytes)).Post("/{code}/audio", h.PostAudio)
	})

	return r
}
