// Package server implements the talkd chat server: the connection
// registry, per-connection protocol handlers, and the listeners that feed
// them.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talkroom/talkd/pkg/store"
)

// Dependencies holds external collaborators for the server.
// The server assumes ownership of Store and closes it on shutdown.
type Dependencies struct {
	Store store.CredentialStore
}

// Server is the talkd chat server.
type Server struct {
	cfg      Config
	registry *Registry
	metrics  *Metrics
	store    store.CredentialStore
	ln       net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		registry: NewRegistry(),
		metrics:  NewMetrics(),
		store:    deps.Store,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Registry returns the connection registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// StartListener binds the TCP listener and starts the accept loop. Each
// accepted connection gets its own handler goroutine that runs until the
// connection reaches its terminal state.
func (s *Server) StartListener() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.ln = ln
	slog.Info("chat server listening", "addr", s.cfg.ListenAddr)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
					slog.Error("accept error", "err", err)
					continue
				}
			}
			go s.handleConn(conn, conn.RemoteAddr().String())
		}
	}()

	return nil
}

// Run starts all listeners and blocks until a shutdown signal.
func (s *Server) Run() error {
	if s.store == nil {
		return fmt.Errorf("server: missing store dependency")
	}
	defer func() { _ = s.store.Close() }()

	if err := s.StartListener(); err != nil {
		return err
	}
	if err := s.StartWebSocket(); err != nil {
		return err
	}
	s.StartMetricsHTTP()
	s.metrics.StartPeriodicLog(60*time.Second, s.ctx.Done())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	s.Shutdown()
	return nil
}

// Shutdown gracefully stops the server: the listeners close, then every
// live session is torn down through its normal teardown path.
func (s *Server) Shutdown() {
	s.cancel()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.registry.CloseAll()
}
