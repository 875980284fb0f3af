// Package client implements the HTTP side of a chat-completions
// conversation: it issues requests against an OpenAI-compatible
// endpoint and hands streamed response bodies to the stream engine.
// Retries happen here, before a stream exists; once a stream is live,
// failures surface through its Recv rather than by reconnecting.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/llm"
	"github.com/papercomputeco/splice/pkg/stream"
	"github.com/papercomputeco/splice/pkg/telemetry"
	"github.com/papercomputeco/splice/pkg/utils"
)

const chatCompletionsPath = "/chat/completions"

// Client talks to a chat-completions API.
type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	retry           RetryPolicy
	logger          *zap.Logger
	publisher       telemetry.Publisher
	streamOpts      []stream.Option
	strictToolCalls bool
}

// Option configures a Client created with New.
type Option func(*Client)

// WithAPIKey sets the bearer token sent on every request. An empty key
// sends no Authorization header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient supplies a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout. The timeout covers the
// entire exchange, including reading a streamed body to its end.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPublisher sets the telemetry publisher that receives per-response
// summaries. Without one, no telemetry is emitted.
func WithPublisher(p telemetry.Publisher) Option {
	return func(c *Client) {
		c.publisher = p
	}
}

// WithStreamOptions sets the engine options applied to every stream
// returned by ChatStream.
func WithStreamOptions(opts ...stream.Option) Option {
	return func(c *Client) {
		c.streamOpts = opts
	}
}

// WithStrictToolCalls makes CollectStream fail on tool calls that never
// received an id or name, instead of passing them through.
func WithStrictToolCalls() Option {
	return func(c *Client) {
		c.strictToolCalls = true
	}
}

// New creates a Client for the API rooted at baseURL, e.g.
// "https://api.openai.com/v1".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		retry:   DefaultRetryPolicy(),
		logger:  zap.NewNop(),
		httpClient: &http.Client{
			// LLM requests can be slow, especially with long completions
			Timeout: 5 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Chat issues a non-streaming completion request and returns the
// decoded response. A non-2xx status is returned as *llm.APIError,
// decoded from the error body when the server sent one.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	start := time.Now()

	body, err := c.marshalRequest(req, false)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.do(ctx, body, "application/json")
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp llm.ChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("could not decode chat response: %w", err)
	}

	c.logger.Debug("chat completion received",
		zap.String("model", resp.Model),
		zap.Duration("duration", time.Since(start)),
	)

	c.publishChatSummary(ctx, &resp, start)

	return &resp, nil
}

// ChatStream issues a streaming completion request and returns the
// engine over the live response body. The caller owns the stream and
// must drain or Close it; closing the stream closes the body.
func (c *Client) ChatStream(ctx context.Context, req *llm.ChatRequest) (*stream.Stream, error) {
	body, err := c.marshalRequest(req, true)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.do(ctx, body, "text/event-stream")
	if err != nil {
		return nil, err
	}

	if ct := httpResp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		httpResp.Body.Close()
		return nil, fmt.Errorf("expected an event stream, got content type %q", ct)
	}

	return stream.New(httpResp.Body, c.streamOpts...), nil
}

// marshalRequest validates req and encodes it with the stream field
// forced to match the calling method. The caller's request is not
// mutated.
func (c *Client) marshalRequest(req *llm.ChatRequest, streaming bool) ([]byte, error) {
	if req == nil {
		return nil, errors.New("chat request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := *req
	if streaming {
		r.Stream = &streaming
	} else {
		r.Stream = nil
	}

	body, err := json.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("could not marshal chat request: %w", err)
	}
	return body, nil
}

// newRequest builds one attempt's HTTP request.
func (c *Client) newRequest(ctx context.Context, body []byte, accept string) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("User-Agent", "splice/"+utils.Version)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return httpReq, nil
}

// publishChatSummary emits a telemetry summary for a non-streaming
// completion. Publish failures are logged, never returned: telemetry
// must not affect the conversation.
func (c *Client) publishChatSummary(ctx context.Context, resp *llm.ChatResponse, start time.Time) {
	if c.publisher == nil {
		return
	}

	summary := telemetry.NewStreamSummary(resp.Model)
	summary.ContentBytes = len(resp.Text())
	summary.DurationMs = time.Since(start).Milliseconds()
	summary.Usage = resp.Usage
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		summary.FinishReason = string(choice.FinishReason)
		summary.ToolCalls = len(choice.Message.ToolCalls)
	}

	if err := c.publisher.PublishSummary(ctx, summary); err != nil {
		c.logger.Warn("summary publish failed", zap.Error(err))
	}
}
