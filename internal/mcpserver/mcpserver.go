// Package mcpserver exposes the task tools to MCP clients. A server is bound
// to one authenticated owner for its whole lifetime; every call goes through
// the same executor the chat pipeline uses.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/phrazzld/tasktalk-api/internal/service/auth"
	"github.com/phrazzld/tasktalk-api/internal/tools"
)

const (
	serverName    = "tasktalk"
	serverVersion = "0.1.0"
)

// Server serves the task tools for a single owner.
type Server struct {
	mcp     *server.MCPServer
	exec    *tools.Executor
	ownerID int64
	logger  *slog.Logger
}

// Authorize resolves the owner behind a raw access token.
func Authorize(ctx context.Context, tokens auth.TokenService, token string) (int64, error) {
	if tokens == nil {
		return 0, errors.New("token service cannot be nil")
	}
	return auth.Authenticate(ctx, tokens, "Bearer "+token)
}

// New registers every catalog tool for ownerID.
func New(exec *tools.Executor, ownerID int64, logger *slog.Logger) (*Server, error) {
	if exec == nil {
		return nil, errors.New("executor cannot be nil")
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: owner id must be positive", auth.ErrInvalidToken)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mcp:     server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
		exec:    exec,
		ownerID: ownerID,
		logger:  logger.With("component", "mcp_server", "owner_id", ownerID),
	}
	for _, spec := range tools.Catalog() {
		s.mcp.AddTool(mcp.NewToolWithRawSchema(spec.Name, spec.Description, spec.Parameters), s.handler(spec.Name))
	}
	return s, nil
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Serve speaks MCP over the given streams until ctx is done or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.InfoContext(ctx, "serving MCP over stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) handler(wireName string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("arguments could not be encoded: %v", err)), nil
		}

		res := s.exec.ExecuteRaw(ctx, s.ownerID, wireName, raw)
		if !res.OK() {
			s.logger.DebugContext(ctx, "tool call failed",
				slog.String("tool", wireName),
				slog.String("kind", string(res.Kind)))
			return mcp.NewToolResultError(res.JSON()), nil
		}
		return mcp.NewToolResultText(res.JSON()), nil
	}
}
