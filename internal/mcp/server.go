// ABOUTME: MCP server setup for the CMO registry.
// ABOUTME: Wraps the MCP server around storage, view, and score engine.
package mcp

import (
	"context"

	"github.com/farmahosp/cmoreg/internal/query"
	"github.com/farmahosp/cmoreg/internal/scoring"
	"github.com/farmahosp/cmoreg/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with registry access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	view      *query.View
	engine    *scoring.Engine
}

// NewServer creates a new MCP server over the given registry.
func NewServer(repo storage.Repository, view *query.View, engine *scoring.Engine) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cmoreg",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		view:      view,
		engine:    engine,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
