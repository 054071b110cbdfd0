// Package mcpserver exposes the search tools to MCP clients.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/esgai/esgsearch/internal/tools"
)

const serverName = "esgsearch"

// New registers each tool with its JSON schema. Tool failures are returned to
// the client as error results, not protocol errors.
func New(toolset []tools.Tool, version string) (*server.MCPServer, error) {
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	for _, t := range toolset {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal %s schema: %w", t.Name, err)
		}
		s.AddTool(mcp.NewToolWithRawSchema(t.Name, t.Description, schema), handler(t))
	}
	return s, nil
}

// ServeStdio blocks serving s over stdin/stdout
func ServeStdio(s *server.MCPServer) error {
	log.Info().Str("server", serverName).Msg("serving MCP over stdio")
	return server.ServeStdio(s)
}

func handler(t tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := t.Execute(ctx, req.GetArguments())
		if err != nil {
			log.Warn().Err(err).Str("tool", t.Name).Msg("MCP tool call failed")
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}
