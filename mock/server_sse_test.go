package mock

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/llm"
	"github.com/papercomputeco/splice/pkg/stream"
)

// newTestServer creates a Server with pacing disabled so specs run at
// full speed.
func newTestServer(config Config) *Server {
	config.ListenAddr = ":0"
	s, err := New(config, zap.NewNop())
	Expect(err).NotTo(HaveOccurred())
	return s
}

// postChat sends a chat request through fiber's in-process test
// transport and returns the response.
func postChat(s *Server, req *llm.ChatRequest, header map[string]string) *http.Response {
	body, err := json.Marshal(req)
	Expect(err).NotTo(HaveOccurred())

	httpReq := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.app.Test(httpReq, -1)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

// postScripts loads a script queue through the control route.
func postScripts(s *Server, body string, header map[string]string) *http.Response {
	httpReq := httptest.NewRequest(http.MethodPost, "/mock/scripts", strings.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.app.Test(httpReq, -1)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

func streamingRequest(content string) *llm.ChatRequest {
	streaming := true
	return &llm.ChatRequest{
		Model:    "mock-gpt",
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, content)},
		Stream:   &streaming,
	}
}

var _ = Describe("Streaming completions", func() {
	It("frames the scripted reply as SSE events ending in [DONE]", func() {
		s := newTestServer(Config{})
		s.SetScripts(Script{Reply: "Hello world"})

		resp := postChat(s, streamingRequest("hi"), nil)
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		raw := string(body)

		Expect(raw).To(ContainSubstring(`"role":"assistant"`))
		Expect(raw).To(ContainSubstring(`"finish_reason":null`))
		Expect(raw).To(ContainSubstring(`"finish_reason":"stop"`))
		Expect(raw).To(ContainSubstring(`"total_tokens"`))
		Expect(raw).To(HaveSuffix("data: [DONE]\n\n"))
	})

	It("round-trips through the stream engine", func() {
		s := newTestServer(Config{ChunkRunes: 3})
		s.SetScripts(Script{Reply: "The quick brown fox"})

		resp := postChat(s, streamingRequest("hi"), nil)
		defer resp.Body.Close()

		text, err := stream.New(resp.Body).CollectRemaining()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("The quick brown fox"))
	})

	It("never splits a multi-byte code point across chunks", func() {
		s := newTestServer(Config{ChunkRunes: 2})
		s.SetScripts(Script{Reply: "héllo wörld ünïcode 日本語"})

		resp := postChat(s, streamingRequest("hi"), nil)
		defer resp.Body.Close()

		st := stream.New(resp.Body)
		var collected strings.Builder
		for {
			chunk, err := st.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.ToValidUTF8(chunk.ContentDelta, "?")).To(Equal(chunk.ContentDelta))
			collected.WriteString(chunk.ContentDelta)
		}
		Expect(collected.String()).To(Equal("héllo wörld ünïcode 日本語"))
	})

	It("interleaves keep-alive comments the engine skips", func() {
		s := newTestServer(Config{})
		s.SetScripts(Script{Reply: "ok", KeepAlive: true})

		resp := postChat(s, streamingRequest("hi"), nil)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(": keep-alive\n"))

		text, err := stream.New(bytes.NewReader(body)).CollectRemaining()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("ok"))
	})

	It("streams tool calls as fragments the accumulator reassembles", func() {
		s := newTestServer(Config{})
		s.SetScripts(Script{
			ToolCalls: []ToolCallScript{{
				ID:               "call_abc",
				Name:             "clock",
				Arguments:        `{"timezone":"America/New_York"}`,
				ArgumentChunkLen: 5,
			}},
		})

		resp := postChat(s, streamingRequest("what time is it"), nil)
		defer resp.Body.Close()

		st := stream.New(resp.Body)
		acc := stream.NewToolCallAccumulator()
		var finish llm.FinishReason
		for {
			chunk, err := st.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			Expect(err).NotTo(HaveOccurred())
			acc.IngestChunk(chunk)
			if chunk.FinishReason != "" && !chunk.Done {
				finish = chunk.FinishReason
			}
		}

		calls, err := acc.Finalize()
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].ID).To(Equal("call_abc"))
		Expect(calls[0].Function.Name).To(Equal("clock"))
		Expect(calls[0].Function.Arguments).To(Equal(`{"timezone":"America/New_York"}`))
		Expect(finish).To(Equal(llm.FinishReasonToolCalls))
	})

	It("surfaces a scripted malformed payload as a parse error", func() {
		s := newTestServer(Config{})
		s.SetScripts(Script{Reply: "partial", Malformed: true})

		resp := postChat(s, streamingRequest("hi"), nil)
		defer resp.Body.Close()

		st := stream.New(resp.Body)
		text, err := st.CollectRemaining()
		Expect(text).To(Equal("partial"))

		var parseErr *stream.ErrParsing
		Expect(errors.As(err, &parseErr)).To(BeTrue())
		Expect(parseErr.Raw).To(Equal("{not valid json"))
	})

	It("surfaces a scripted in-stream error as an API error", func() {
		s := newTestServer(Config{})
		s.SetScripts(Script{
			Error: &llm.APIError{Message: "model overloaded", Type: "server_error"},
		})

		resp := postChat(s, streamingRequest("hi"), nil)
		defer resp.Body.Close()

		st := stream.New(resp.Body)
		_, err := st.Recv() // role prologue
		Expect(err).NotTo(HaveOccurred())

		var apiErr *llm.APIError
		for {
			_, err = st.Recv()
			if err != nil {
				break
			}
		}
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Message).To(Equal("model overloaded"))
	})

	It("consumes the script queue in order and keeps the last sticky", func() {
		s := newTestServer(Config{})
		s.SetScripts(Script{Reply: "first"}, Script{Reply: "second"})

		for _, want := range []string{"first", "second", "second"} {
			resp := postChat(s, streamingRequest("hi"), nil)
			text, err := stream.New(resp.Body).CollectRemaining()
			resp.Body.Close()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(want))
		}
	})
})

var _ = Describe("Non-streaming completions", func() {
	It("returns the scripted reply as one JSON response", func() {
		s := newTestServer(Config{Model: "test-model"})
		s.SetScripts(Script{Reply: "complete answer"})

		resp := postChat(s, &llm.ChatRequest{
			Model:    "anything",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
		}, nil)
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var decoded llm.ChatResponse
		Expect(json.NewDecoder(resp.Body).Decode(&decoded)).To(Succeed())
		Expect(decoded.ID).To(HavePrefix("chatcmpl-"))
		Expect(decoded.Model).To(Equal("test-model"))
		Expect(decoded.Text()).To(Equal("complete answer"))
		Expect(decoded.Choices[0].FinishReason).To(Equal(llm.FinishReasonStop))
		Expect(decoded.Usage).NotTo(BeNil())
		Expect(decoded.Usage.TotalTokens).To(BeNumerically(">", 0))
	})

	It("carries scripted tool calls on the message", func() {
		s := newTestServer(Config{})
		s.SetScripts(Script{
			ToolCalls: []ToolCallScript{{ID: "call_1", Name: "calculate", Arguments: `{"op":"add","a":1,"b":2}`}},
		})

		resp := postChat(s, &llm.ChatRequest{
			Model:    "m",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "1+2?")},
		}, nil)
		defer resp.Body.Close()

		var decoded llm.ChatResponse
		Expect(json.NewDecoder(resp.Body).Decode(&decoded)).To(Succeed())
		Expect(decoded.Choices[0].Message.ToolCalls).To(HaveLen(1))
		Expect(decoded.Choices[0].Message.ToolCalls[0].Function.Name).To(Equal("calculate"))
		Expect(decoded.Choices[0].FinishReason).To(Equal(llm.FinishReasonToolCalls))
	})

	It("echoes the last user message when no script is set", func() {
		s := newTestServer(Config{})

		resp := postChat(s, &llm.ChatRequest{
			Model:    "m",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "anyone home?")},
		}, nil)
		defer resp.Body.Close()

		var decoded llm.ChatResponse
		Expect(json.NewDecoder(resp.Body).Decode(&decoded)).To(Succeed())
		Expect(decoded.Text()).To(Equal("You said: anyone home?"))
	})
})

var _ = Describe("Request validation", func() {
	It("rejects a body that is not JSON", func() {
		s := newTestServer(Config{})

		httpReq := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader("{nope"))
		resp, err := s.app.Test(httpReq, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

		var envelope llm.ErrorResponse
		Expect(json.NewDecoder(resp.Body).Decode(&envelope)).To(Succeed())
		Expect(envelope.Error.Type).To(Equal("invalid_request_error"))
	})

	It("rejects a request without a model", func() {
		s := newTestServer(Config{})

		resp := postChat(s, &llm.ChatRequest{
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
		}, nil)
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("enforces the configured API key", func() {
		s := newTestServer(Config{APIKey: "sk-test"})

		denied := postChat(s, streamingRequest("hi"), nil)
		denied.Body.Close()
		Expect(denied.StatusCode).To(Equal(http.StatusUnauthorized))

		allowed := postChat(s, streamingRequest("hi"), map[string]string{
			"Authorization": "Bearer sk-test",
		})
		defer allowed.Body.Close()
		Expect(allowed.StatusCode).To(Equal(http.StatusOK))
	})
})

var _ = Describe("Script loading over HTTP", func() {
	It("stages scripts that subsequent requests consume in order", func() {
		s := newTestServer(Config{})

		resp := postScripts(s, `{"scripts":[{"reply":"staged one"},{"reply":"staged two"}]}`, nil)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var ack map[string]int
		Expect(json.NewDecoder(resp.Body).Decode(&ack)).To(Succeed())
		Expect(ack["loaded"]).To(Equal(2))

		for _, want := range []string{"staged one", "staged two"} {
			chat := postChat(s, streamingRequest("hi"), nil)
			text, err := stream.New(chat.Body).CollectRemaining()
			chat.Body.Close()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(want))
		}
	})

	It("accepts tool-call scripts in wire shape", func() {
		s := newTestServer(Config{})

		resp := postScripts(s, `{"scripts":[{"tool_calls":[{"id":"call_http","name":"clock","arguments":"{\"timezone\":\"UTC\"}"}]}]}`, nil)
		resp.Body.Close()

		chat := postChat(s, &llm.ChatRequest{
			Model:    "m",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "what time is it")},
		}, nil)
		defer chat.Body.Close()

		var decoded llm.ChatResponse
		Expect(json.NewDecoder(chat.Body).Decode(&decoded)).To(Succeed())
		Expect(decoded.Choices[0].Message.ToolCalls).To(HaveLen(1))
		Expect(decoded.Choices[0].Message.ToolCalls[0].ID).To(Equal("call_http"))
		Expect(decoded.Choices[0].Message.ToolCalls[0].Function.Name).To(Equal("clock"))
	})

	It("clears the queue when given an empty list", func() {
		s := newTestServer(Config{})
		s.SetScripts(Script{Reply: "sticky"})

		resp := postScripts(s, `{"scripts":[]}`, nil)
		resp.Body.Close()

		chat := postChat(s, streamingRequest("anyone home?"), nil)
		text, err := stream.New(chat.Body).CollectRemaining()
		chat.Body.Close()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("You said: anyone home?"))
	})

	It("rejects a body that is not JSON", func() {
		s := newTestServer(Config{})

		resp := postScripts(s, "{nope", nil)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("enforces the configured API key on the control route", func() {
		s := newTestServer(Config{APIKey: "sk-test"})

		denied := postScripts(s, `{"scripts":[]}`, nil)
		denied.Body.Close()
		Expect(denied.StatusCode).To(Equal(http.StatusUnauthorized))

		allowed := postScripts(s, `{"scripts":[]}`, map[string]string{
			"Authorization": "Bearer sk-test",
		})
		defer allowed.Body.Close()
		Expect(allowed.StatusCode).To(Equal(http.StatusOK))
	})
})
