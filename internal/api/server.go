package api

import (
	"log"
	"net/http"

	"rts-arena/internal/room"

	"github.com/go-chi/chi/v5"
)

// Server combines the REST router with the WebSocket hub.
type Server struct {
	manager     *room.Manager
	hub         *Hub
	router      *chi.Mux
	rateLimiter *IPRateLimiter
}

// NewServer creates the API server with production defaults.
//
// IMPORTANT: No background workers start until Start() is called, so the
// server can be constructed in tests and used via Router() without
// goroutines or listeners.
func NewServer(manager *room.Manager, hub *Hub) *Server {
	s := &Server{
		manager: manager,
		hub:     hub,
	}

	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	s.router = NewRouter(RouterConfig{
		Manager:     manager,
		RateLimiter: s.rateLimiter,
	})

	// The WebSocket route needs the hub instance, so it sits outside the
	// pure router factory.
	s.router.Get("/ws", s.hub.HandleWebSocket)

	return s
}

// Start runs the room sweeper and the HTTP listener. Blocks.
func (s *Server) Start(addr string) error {
	s.manager.StartSweeper()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🕹️ Lobby: http://localhost%s/api/rooms", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop shuts down background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.manager.Stop()
}
