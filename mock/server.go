// Package mock implements a scriptable chat-completions server for
// developing and testing streaming consumers without a real provider.
// It speaks the same wire dialect the engine consumes: SSE chunks with
// role/content/tool-call deltas, a final finish chunk with usage, and
// the [DONE] sentinel.
package mock

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/llm"
)

// Server is a local stand-in for a chat-completions API. Responses come
// from the script queue when one is set, otherwise from a default reply
// derived from the request.
type Server struct {
	config Config
	logger *zap.Logger
	app    *fiber.App

	mu      sync.Mutex
	scripts []Script
}

// New creates a mock server. The server does not listen until Run or
// RunWithListener is called.
func New(config Config, logger *zap.Logger) (*Server, error) {
	config = applyDefaults(config)

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/chat/completions", s.handleChatCompletions)
	app.Post("/v1/chat/completions", s.handleChatCompletions)
	app.Post("/mock/scripts", s.handleSetScripts)

	return s, nil
}

// Run starts the server on the configured listen address.
func (s *Server) Run() error {
	s.logger.Info("starting mock server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("model", s.config.Model),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on the provided listener. Used by
// tests that need an ephemeral port.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting mock server",
		zap.String("listen", listener.Addr().String()),
		zap.String("model", s.config.Model),
	)

	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// SetScripts replaces the script queue. Each scripted response is
// consumed by one request in order; the final script is sticky and
// serves every request after the queue runs dry.
func (s *Server) SetScripts(scripts ...Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = scripts
}

// nextScript pops the next script, keeping the last one as the steady
// state. Returns false when no scripts are set.
func (s *Server) nextScript() (Script, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.scripts) == 0 {
		return Script{}, false
	}

	script := s.scripts[0]
	if len(s.scripts) > 1 {
		s.scripts = s.scripts[1:]
	}
	return script, true
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.SendString("pong")
}

// handleChatCompletions serves both streaming and non-streaming
// completion requests.
func (s *Server) handleChatCompletions(c *fiber.Ctx) error {
	start := time.Now()

	if s.config.APIKey != "" {
		if c.Get(fiber.HeaderAuthorization) != "Bearer "+s.config.APIKey {
			return apiError(c, http.StatusUnauthorized, "invalid or missing API key", "invalid_request_error")
		}
	}

	var req llm.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apiError(c, http.StatusBadRequest, "request body is not valid JSON: "+err.Error(), "invalid_request_error")
	}
	if err := req.Validate(); err != nil {
		return apiError(c, http.StatusBadRequest, err.Error(), "invalid_request_error")
	}

	script, scripted := s.nextScript()
	if !scripted {
		script = defaultScript(&req)
	}

	s.logger.Debug("chat completion request",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Bool("streaming", req.Streaming()),
		zap.Bool("scripted", scripted),
	)

	completionID := "chatcmpl-" + uuid.NewString()
	if req.Streaming() {
		return s.streamCompletion(c, &req, script, completionID, start)
	}
	return s.completeOnce(c, &req, script, completionID, start)
}

// scriptsRequest is the body for POST /mock/scripts.
type scriptsRequest struct {
	Scripts []Script `json:"scripts"`
}

// handleSetScripts replaces the script queue over HTTP, so a consumer
// under test can stage responses without touching the server process.
// An empty list clears the queue and restores the derived replies.
func (s *Server) handleSetScripts(c *fiber.Ctx) error {
	if s.config.APIKey != "" {
		if c.Get(fiber.HeaderAuthorization) != "Bearer "+s.config.APIKey {
			return apiError(c, http.StatusUnauthorized, "invalid or missing API key", "invalid_request_error")
		}
	}

	var req scriptsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apiError(c, http.StatusBadRequest, "request body is not valid JSON: "+err.Error(), "invalid_request_error")
	}

	s.SetScripts(req.Scripts...)
	s.logger.Debug("script queue replaced", zap.Int("scripts", len(req.Scripts)))

	return c.JSON(map[string]any{"loaded": len(req.Scripts)})
}

// completeOnce serves the non-streaming path: one JSON response with
// the whole scripted reply.
func (s *Server) completeOnce(c *fiber.Ctx, req *llm.ChatRequest, script Script, completionID string, start time.Time) error {
	message := llm.Message{
		Role:    llm.RoleAssistant,
		Content: script.Reply,
	}
	for _, call := range script.ToolCalls {
		message.ToolCalls = append(message.ToolCalls, llm.ToolCall{
			ID:   call.ID,
			Type: "function",
			Function: llm.FunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}

	resp := llm.ChatResponse{
		ID:      completionID,
		Object:  "chat.completion",
		Created: start.Unix(),
		Model:   s.config.Model,
		Choices: []llm.Choice{{
			Message:      message,
			FinishReason: script.finishReason(),
		}},
		Usage: estimateUsage(req, script.Reply),
	}

	return c.JSON(resp)
}

// apiError responds with the standard chat-completions error envelope.
func apiError(c *fiber.Ctx, status int, message, errType string) error {
	return c.Status(status).JSON(llm.ErrorResponse{
		Error: &llm.APIError{
			Message: message,
			Type:    errType,
		},
	})
}

// defaultScript derives an unscripted reply from the request so the
// server is usable interactively without any setup.
func defaultScript(req *llm.ChatRequest) Script {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		msg := req.Messages[i]
		switch msg.Role {
		case llm.RoleTool:
			return Script{Reply: "The tool returned: " + msg.Content}
		case llm.RoleUser:
			return Script{Reply: "You said: " + msg.Content}
		}
	}
	return Script{Reply: "Hello from the mock server."}
}

// estimateUsage fabricates plausible token counts: roughly one token
// per four characters, never zero for non-empty text.
func estimateUsage(req *llm.ChatRequest, reply string) *llm.Usage {
	var promptChars int
	for _, msg := range req.Messages {
		promptChars += len(msg.Content)
	}

	usage := &llm.Usage{
		PromptTokens:     estimateTokens(promptChars),
		CompletionTokens: estimateTokens(len(reply)),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage
}

func estimateTokens(chars int) int {
	if chars == 0 {
		return 0
	}
	return chars/4 + 1
}

// splitRunes cuts s into chunks of at most n runes each, never
// splitting a multi-byte code point.
func splitRunes(s string, n int) []string {
	if n < 1 {
		n = 1
	}

	var chunks []string
	var sb strings.Builder
	count := 0
	for _, r := range s {
		sb.WriteRune(r)
		count++
		if count == n {
			chunks = append(chunks, sb.String())
			sb.Reset()
			count = 0
		}
	}
	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}
	return chunks
}
