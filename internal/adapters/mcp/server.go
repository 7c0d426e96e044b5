// Package mcpadapter exposes entity resolution as an MCP tool so agent
// frameworks can call the resolver over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
	"github.com/kirillkom/graph-resolver/internal/core/ports"
)

const toolName = "resolve_entity"

type Server struct {
	resolver ports.EntityResolver
	mcp      *server.MCPServer
}

func NewServer(resolver ports.EntityResolver, version string) *Server {
	s := &Server{resolver: resolver}

	mcpServer := server.NewMCPServer(
		"graph-resolver",
		version,
		server.WithToolCapabilities(false),
	)

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Resolve an entity name against the knowledge graph. Returns ranked candidates and a matched/ambiguous/no_match decision."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Entity name to resolve, e.g. 'Daniel Miessler' or 'Miessler, Daniel'."),
		),
		mcp.WithString("tag",
			mcp.Description("Optional tag filter; candidates carrying the tag score higher."),
		),
		mcp.WithNumber("threshold",
			mcp.Description(fmt.Sprintf("Minimum confidence for a candidate to survive (default %.2f).", domain.DefaultThreshold)),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum candidates to return (default %d).", domain.DefaultLimit)),
		),
		mcp.WithBoolean("exact",
			mcp.Description("Restrict matching to exact normalized lookups."),
		),
	)
	mcpServer.AddTool(tool, s.handleResolve)

	s.mcp = mcpServer
	return s
}

// ServeStdio blocks until stdin closes or the context is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := domain.Query{
		Text:      name,
		Tag:       request.GetString("tag", ""),
		Threshold: request.GetFloat("threshold", 0),
		Limit:     request.GetInt("limit", 0),
		ExactOnly: request.GetBool("exact", false),
	}

	result := s.resolver.Resolve(ctx, query)

	payload, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode resolution result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
