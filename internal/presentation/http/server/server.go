// Package server provides HTTP server initialization and management.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/AtRiskMedia/vibecheck-go/internal/application/container"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/presentation/http/routes"
	"github.com/AtRiskMedia/vibecheck-go/pkg/config"
)

// Server serves the VibeCheck API and the browser websocket.
type Server struct {
	httpServer *http.Server
	logger     *logging.ChanneledLogger
}

// New builds the router from the container and binds it to port.
func New(port string, container *container.Container) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         net.JoinHostPort("", port),
			Handler:      routes.SetupRoutes(container),
			ReadTimeout:  config.ServerReadTimeout,
			WriteTimeout: config.ServerWriteTimeout,
			IdleTimeout:  config.ServerIdleTimeout,
		},
		logger: container.Logger,
	}
}

// OnShutdown registers fn to run when Stop begins. Websocket connections are
// hijacked and not closed by http.Server.Shutdown, so the hub is torn down here.
func (s *Server) OnShutdown(fn func()) {
	s.httpServer.RegisterOnShutdown(fn)
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	s.logger.System().Info("Starting HTTP server", "address", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Shutdown().Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
