// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package web owns the HTTP listener lifecycle for the webhook intake:
// bind, serve, and graceful drain on shutdown. Routing and payload
// handling belong to the caller's http.Handler.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server serves HTTP on a TCP listener. Serve(ctx) blocks until the
// context is cancelled, then stops accepting connections and waits for
// in-flight requests to drain.
type Server struct {
	address string
	handler http.Handler
	logger  *slog.Logger

	// shutdownTimeout is the maximum time to wait for active
	// requests to complete after the context is cancelled.
	shutdownTimeout time.Duration

	// ready is closed after the listener is bound and the server
	// is accepting connections.
	ready chan struct{}

	// addr is the resolved listen address, available after ready is
	// closed. Useful when the configured address uses port 0.
	addr net.Addr
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Address is the TCP listen address (e.g., ":8080"). Required.
	Address string

	// Handler is the HTTP handler for incoming requests. Required.
	Handler http.Handler

	// ShutdownTimeout is the maximum time to wait for in-flight
	// requests during graceful shutdown. Defaults to 10 seconds.
	ShutdownTimeout time.Duration

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewServer creates a server that will listen on the configured TCP
// address. Call Serve to start accepting connections.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		panic("web.Server: Address is required")
	}
	if config.Handler == nil {
		panic("web.Server: Handler is required")
	}
	if config.Logger == nil {
		panic("web.Server: Logger is required")
	}

	timeout := config.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		address:         config.Address,
		handler:         config.Handler,
		logger:          config.Logger,
		shutdownTimeout: timeout,
		ready:           make(chan struct{}),
	}
}

// Ready returns a channel that is closed once the server is bound and
// accepting connections.
func (server *Server) Ready() <-chan struct{} {
	return server.ready
}

// Addr returns the resolved listen address. Only valid after Ready()
// is closed.
func (server *Server) Addr() net.Addr {
	return server.addr
}

// Serve accepts HTTP connections until ctx is cancelled, then performs
// graceful shutdown.
func (server *Server) Serve(ctx context.Context) error {
	// Bind the listener early so the resolved address is known and
	// readiness can be signalled before the serve loop starts.
	listener, err := net.Listen("tcp", server.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", server.address, err)
	}
	server.addr = listener.Addr()
	close(server.ready)

	httpServer := &http.Server{
		Handler: server.handler,

		// Timeouts protect against slow clients holding connections
		// open. Event payloads are small, so these are generous.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	server.logger.Info("http server listening", "address", server.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		server.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		server.logger.Error("http server shutdown error", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}

	server.logger.Info("http server stopped")
	return nil
}
