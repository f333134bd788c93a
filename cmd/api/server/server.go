package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"user-directory-service/cmd/api/di"

	"go.uber.org/zap"
)

// Server owns the HTTP listener of the API.
type Server struct {
	Logger *zap.Logger
	HTTP   *http.Server
}

// New creates a new server instance
func New(c *di.Container) *Server {
	return &Server{
		Logger: c.Logger,
		HTTP:   SetupGinServer(c, ":"+c.Config.App.HTTPPort),
	}
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(context.Background(), "tcp", s.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.Logger.Info("HTTP server running", zap.String("address", lis.Addr().String()))
	if err := s.HTTP.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTP.Shutdown(ctx)
}
