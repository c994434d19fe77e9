// Package server hosts the coach HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mentorio/pkg/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	srv *http.Server
}

// New builds the router and server around the handler.
func New(cfg config.ServerConfig, h *Handler) *Server {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(CORS(cfg.AllowedOrigins))

	h.RegisterRoutes(r)

	return &Server{
		srv: &http.Server{
			Addr:    ":" + strconv.Itoa(cfg.Port),
			Handler: r,
			// Agent runs routinely take tens of seconds; the write timeout
			// must cover a full multi-turn tool loop.
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start begins serving in a goroutine. Fatal listen errors are reported on
// the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
