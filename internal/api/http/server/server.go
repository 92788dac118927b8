package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ndanilin/linkpage-server/internal/logger"
	"github.com/ndanilin/linkpage-server/internal/model"
)

// HTTPServer wraps http.Server behind the model.Server interface so the
// entrypoint can treat transports uniformly.
type HTTPServer struct {
	server  *http.Server
	address string
	logger  *logger.Logger
}

var _ model.Server = (*HTTPServer)(nil)

// NewServer creates an HTTPServer serving handler on address.
func NewServer(handler http.Handler, address string, logger *logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		address: address,
		logger:  logger,
	}
}

// Start opens a listener through the security layer and serves until Stop.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.logger.Info("http server listening", "address", s.address)

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Address returns the configured listen address.
func (s *HTTPServer) Address() string {
	return s.address
}
