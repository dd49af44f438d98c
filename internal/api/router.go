package api

import (
	"rts-arena/internal/room"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig contains the dependencies needed to construct the HTTP
// router. Designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Manager: manager,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Manager is the room registry (required).
	Manager *room.Manager

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one is created from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig configures the rate limiter when RateLimiter is
	// nil. When both are nil, DefaultRateLimitConfig is used.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins overrides the allowed CORS origins.
	CORSOrigins []string

	// DisableLogging drops the request logger middleware (benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler receiver state.
type routerHandlers struct {
	manager *room.Manager
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - no goroutines, no listeners - which
// makes it safe to use in tests with httptest.NewServer. The exception is
// the rate limiter's cleanup goroutine when one is created here; pass a
// pre-built RateLimiter to control its lifecycle.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to shed floods early.
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{manager: cfg.Manager}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.handleListRooms)
			r.Post("/", h.handleCreateRoom)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetRoom)
				r.Post("/join", h.handleJoinRoom)
				r.Post("/leave", h.handleLeaveRoom)
				r.Post("/ready", h.handleReady)
				r.Post("/start", h.handleStart)
			})
		})
	})

	return r
}
