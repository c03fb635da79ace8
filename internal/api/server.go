package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/newsletter-service/internal/config"
	"github.com/ignite/newsletter-service/internal/service/subscription"
)

// Server represents the API server
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	server   *http.Server
	router   *chi.Mux
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, svc *subscription.Service) *Server {
	handlers := NewHandlers(svc)
	router := SetupRoutes(handlers)

	return &Server{
		config:   cfg,
		handler:  router,
		handlers: handlers,
		router:   router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
