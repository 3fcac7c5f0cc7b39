package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/maxpert/fbsql/telemetry"
	"github.com/rs/zerolog/log"
)

// NewRouter builds the admin routes using chi router
func NewRouter(handlers *AdminHandlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handlers.handleHealth)

	if metrics := telemetry.GetMetricsHandler(); metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/blobs/{blobID}", func(r chi.Router) {
		r.Get("/", handlers.handleBlobStat)
		r.Get("/content", handlers.handleBlobContent)
	})

	return r
}

// Server serves the admin routes over HTTP
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// Start listens on address:port and serves in the background
func Start(address string, port int, handlers *AdminHandlers) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	s := &Server{
		httpServer: &http.Server{Handler: NewRouter(handlers)},
		listener:   listener,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Admin HTTP server failed")
		}
	}()

	log.Info().Str("address", listener.Addr().String()).Msg("Admin HTTP server started")
	return s, nil
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for requests in flight
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
