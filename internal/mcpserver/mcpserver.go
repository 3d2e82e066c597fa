// Package mcpserver wires the seven Telegram tools (spec.md §4) onto
// github.com/mark3labs/mcp-go's server package, exposing both stdio and
// streamable-HTTP transports. Construction follows the teacher's
// internal/mcp/manager_connect.go transport-selection shape, ported from
// the client side (the teacher only ever dials out to MCP servers) to the
// server side this repo needs. Tool catalogue and the env-driven transport
// choice (MCP_TRANSPORT/MCP_HOST/MCP_PORT) are grounded on
// original_source/src/server.py.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/leshchenko1979/telegram-mcp-go/internal/authctx"
	"github.com/leshchenko1979/telegram-mcp-go/internal/config"
	"github.com/leshchenko1979/telegram-mcp-go/internal/rpcbridge"
	"github.com/leshchenko1979/telegram-mcp-go/internal/session"
)

// Server bundles the MCP server instance with the collaborators its tool
// handlers need: the session manager (spec.md §4.1) and the raw-RPC
// registry (spec.md §4.8). Nothing here holds a PlatformClient directly —
// every handler acquires one per call via sessions.
type Server struct {
	cfg      *config.Config
	sessions *session.Manager
	registry *rpcbridge.Registry
	mcp      *server.MCPServer
}

// New builds the MCP server and registers every tool from spec.md §4.
func New(cfg *config.Config, sessions *session.Manager, registry *rpcbridge.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		registry: registry,
	}
	s.mcp = server.NewMCPServer(
		config.DefaultServerName,
		config.DefaultServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s.registerTools()
	return s
}

// Run blocks serving the configured transport until ctx is cancelled or the
// transport reports a fatal error.
func (s *Server) Run(ctx context.Context) error {
	switch strings.ToLower(s.cfg.Transport.Mode) {
	case "", "stdio":
		slog.Info("mcpserver.start", "transport", "stdio")
		return server.ServeStdio(s.mcp)

	case "http", "streamable-http":
		addr := fmt.Sprintf("%s:%d", s.cfg.Transport.Host, s.cfg.Transport.Port)
		httpServer := server.NewStreamableHTTPServer(s.mcp,
			server.WithHTTPContextFunc(extractBearerToken),
		)
		slog.Info("mcpserver.start", "transport", "http", "addr", addr)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(addr) }()
		select {
		case <-ctx.Done():
			return httpServer.Shutdown(context.Background())
		case err := <-errCh:
			return err
		}

	default:
		return fmt.Errorf("mcpserver: unsupported transport %q", s.cfg.Transport.Mode)
	}
}

// extractBearerToken implements with_auth_context's transport-layer half
// (spec.md §4.2): headers are read case-insensitively (net/http already
// normalises header lookups), and a missing/malformed Authorization header
// simply leaves the token unset — the interceptor chain in middleware.go is
// what turns that into a hard failure when requiresBearerToken reports that
// the transport needs one.
func extractBearerToken(ctx context.Context, r *http.Request) context.Context {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ctx
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return authctx.WithToken(ctx, token)
}
