// Package httpserver wraps the standard library HTTP server with the
// application's listener configuration and lifecycle.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/wisp-cms/wisp/internal/config"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// Server owns the HTTP listener and graceful shutdown.
type Server struct {
	cfg config.ServerConfig
	log *logger.Logger
	srv *http.Server
	ln  net.Listener
}

// New constructs a server for the handler. Nothing is bound until Listen.
func New(cfg config.ServerConfig, log *logger.Logger, handler http.Handler) *Server {
	if log == nil {
		log = logger.NewDefault("httpserver")
	}
	return &Server{
		cfg: cfg,
		log: log,
		srv: &http.Server{
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Listen binds the configured address. Port 0 binds an ephemeral port;
// Addr reports the one chosen.
func (s *Server) Listen() error {
	if s.ln != nil {
		return nil
	}
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address. Empty until Listen succeeds.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Start serves on the bound listener, binding it first if needed. It blocks
// until Shutdown or a listener failure; a clean shutdown returns
// http.ErrServerClosed like the standard library.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.log.Infof("http server listening on %s", s.Addr())
	return s.srv.Serve(s.ln)
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
