package api

import (
	"encoding/json"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/api/mcp"
	"github.com/papercomputeco/splice/pkg/tool"
)

// Server hosts the MCP endpoint and the tool inspection routes.
type Server struct {
	config   Config
	registry *tool.Registry
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates an API server around the given tool registry.
// The registry is shared with whatever else dispatches tools (e.g., a
// chat session), so both sides see the same set.
func NewServer(config Config, registry *tool.Registry, logger *zap.Logger) (*Server, error) {
	mcpServer, err := mcp.NewServer(mcp.Config{
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		registry: registry,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/tools", s.handleListTools)
	// The MCP handler is a net/http handler; bridge it into the fiber app.
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
		zap.Int("tools", s.registry.Len()),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on the provided listener. Used by
// tests that need an ephemeral port.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting API server",
		zap.String("listen", listener.Addr().String()),
		zap.Int("tools", s.registry.Len()),
	)
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// toolInfo describes one registered tool.
type toolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListTools returns the registered tools with their schemas.
func (s *Server) handleListTools(c *fiber.Ctx) error {
	tools := make([]toolInfo, 0, s.registry.Len())
	for _, name := range s.registry.Names() {
		h, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		tools = append(tools, toolInfo{
			Name:        h.Name(),
			Description: h.Description(),
			Parameters:  h.ParametersSchema(),
		})
	}

	return c.JSON(map[string]any{
		"count": len(tools),
		"tools": tools,
	})
}
