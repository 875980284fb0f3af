// Package mcp provides an MCP (Model Context Protocol) server exposing the
// splice tool registry, so the same tools a chat session can call are also
// reachable by external MCP clients.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/tool"
	"github.com/papercomputeco/splice/pkg/utils"
)

type Config struct {
	// Registry holds the tools to expose.
	Registry *tool.Registry

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with one MCP tool per registry entry.
func NewServer(c Config) (*Server, error) {
	if c.Registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "splice",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	// Register each tool with its declared argument schema. The registry
	// carries schemas as raw JSON, so they are parsed here rather than
	// derived from Go types.
	for _, name := range c.Registry.Names() {
		h, ok := c.Registry.Get(name)
		if !ok {
			continue
		}

		schema := new(jsonschema.Schema)
		if err := json.Unmarshal(h.ParametersSchema(), schema); err != nil {
			return nil, fmt.Errorf("parsing schema for tool %q: %w", name, err)
		}

		mcpServer.AddTool(&mcp.Tool{
			Name:        h.Name(),
			Description: h.Description(),
			InputSchema: schema,
		}, s.toolHandler(h.Name()))
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// toolHandler adapts a registry dispatch into an MCP tool handler.
// Execution failures come back as in-band tool errors, not protocol errors,
// so clients see what went wrong.
func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := s.config.Logger

		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		logger.Debug("MCP tool call",
			zap.String("tool", name),
			zap.Int("args_bytes", len(args)),
		)

		out, err := s.config.Registry.Dispatch(ctx, name, args)
		if err != nil {
			logger.Error("tool dispatch failed",
				zap.String("tool", name),
				zap.Error(err),
			)
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{
					&mcp.TextContent{Text: fmt.Sprintf("Tool %q failed: %v", name, err)},
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(out)},
			},
		}, nil
	}
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
