package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leshchenko1979/telegram-mcp-go/internal/authctx"
	"github.com/leshchenko1979/telegram-mcp-go/internal/toolerr"
)

// toolFunc is the signature every domain handler in tools.go is written
// against: a bearer token (possibly "", the stdio single-session sentinel —
// spec.md §4.2), the raw argument map mcp-go decoded from the call, and a
// result to be JSON-serialised, or an error.
type toolFunc func(ctx context.Context, token string, args map[string]any) (any, error)

// requiresBearerToken reports whether spec.md §4.2's "fails the request
// with Missing Bearer token before the handler runs" applies: only for a
// network-based transport with authentication enabled. stdio has no auth
// headers at all, and --test-mode (cmd/serve.go) disables this check by
// setting Transport.AuthEnabled false.
func (s *Server) requiresBearerToken() bool {
	mode := strings.ToLower(s.cfg.Transport.Mode)
	return (mode == "http" || mode == "streamable-http") && s.cfg.Transport.AuthEnabled
}

// wrap implements the interceptor chain from spec.md §2: error-handling
// wraps auth-context wraps the tool body. auth-context attaches the bearer
// token (already extracted into ctx by extractBearerToken for HTTP, absent
// for stdio) and a fresh per-call request ID; error-handling converts any
// returned error — in particular a *toolerr.Error — into the structured
// Record spec.md §3/§7 defines, so a failed tool call is still a normal MCP
// result rather than a transport-level error. When the transport is
// network-based with authentication enabled, a missing bearer fails the
// request with Unauthorized before fn ever runs (spec.md §4.2).
func (s *Server) wrap(operation string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		ctx = authctx.WithRequestID(ctx, requestID)
		token := authctx.TokenFromCtx(ctx)

		if token == "" && s.requiresBearerToken() {
			slog.Warn("mcpserver.tool.unauthorized", "operation", operation, "request_id", requestID)
			missing := toolerr.New(toolerr.KindUnauthorized, operation, requestID, "Missing Bearer token", nil)
			return textResult(missing.ToRecord())
		}

		args := req.GetArguments()

		result, err := fn(ctx, token, args)
		if err != nil {
			var te *toolerr.Error
			if errors.As(err, &te) {
				if te.RequestID == "" {
					te.RequestID = requestID
				}
				slog.Warn("mcpserver.tool.failed", "operation", operation, "request_id", te.RequestID, "kind", te.Kind, "message", te.Message)
				return textResult(te.ToRecord())
			}
			generic := toolerr.Internal(operation, requestID, err, nil)
			slog.Error("mcpserver.tool.error", "operation", operation, "request_id", requestID, "error", err)
			return textResult(generic.ToRecord())
		}

		return textResult(result)
	}
}

func textResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
