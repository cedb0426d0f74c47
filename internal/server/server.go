// Package server runs the HTTP server hosting the REST routes and the optional MCP endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/logger"
	"github.com/brizzai/social-connect/internal/server/handler"
	"github.com/brizzai/social-connect/internal/server/tool"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server owns the listener and the MCP server instance, when MCP is enabled.
type Server struct {
	config  *config.Config
	mcp     *mcpserver.MCPServer
	handler *handler.Handler
	tool    *tool.Handler
}

// NewServer creates a server and registers the MCP tools if MCP is enabled.
func NewServer(cfg *config.Config, h *handler.Handler, t *tool.Handler) *Server {
	if cfg == nil {
		logger.Fatal("Config cannot be nil")
	}
	if h == nil {
		logger.Fatal("Handler cannot be nil")
	}

	srv := &Server{
		config:  cfg,
		handler: h,
		tool:    t,
	}

	if cfg.MCP.Enabled {
		srv.mcp = mcpserver.NewMCPServer(
			cfg.MCP.Name,
			config.Version(),
			mcpserver.WithToolCapabilities(false),
		)
		t.Register(srv.mcp)
	}

	return srv
}

// Handler returns the complete request handler, middleware included.
func (s *Server) Handler() http.Handler {
	var mcpHandler http.Handler
	if s.mcp != nil {
		mcpHandler = mcpserver.NewStreamableHTTPServer(s.mcp)
	}
	return s.handler.CreateHTTPHandler(mcpHandler, s.config.MCP.Path)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting server",
		zap.String("mode", string(s.config.Server.Mode)),
		zap.String("version", config.Version()),
		zap.Bool("mcp", s.mcp != nil),
	)

	switch s.config.Server.Mode {
	case config.ServerModeHTTP:
		return s.serveHTTP(ctx, s.Handler())
	default:
		return fmt.Errorf("unsupported server mode: %s", s.config.Server.Mode)
	}
}

func (s *Server) serveHTTP(ctx context.Context, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: s.config.Server.Timeout,
	}

	errChan := make(chan error, 1)

	go func() {
		logger.Info("Listening", zap.String("address", addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server", zap.Duration("timeout", s.config.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// registerLifecycle runs the server for the lifetime of the fx application.
func registerLifecycle(lc fx.Lifecycle, s *Server, shutdowner fx.Shutdowner) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				err := s.Start(ctx)
				if err != nil {
					logger.Error("Server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
				done <- err
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case err := <-done:
				return err
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

// Module provides the HTTP server and runs it on application start
var Module = fx.Module("server",
	fx.Provide(
		handler.NewHandler,
		tool.NewHandler,
		NewServer,
	),
	fx.Invoke(registerLifecycle),
)
