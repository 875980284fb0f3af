package tool_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/splice/pkg/llm"
	"github.com/papercomputeco/splice/pkg/tool"
)

var _ = Describe("Registry", func() {
	var (
		reg *tool.Registry
		ctx context.Context
	)

	BeforeEach(func() {
		reg = tool.NewRegistry()
		ctx = context.Background()
	})

	Describe("Register", func() {
		It("registers handlers and preserves order", func() {
			Expect(reg.Register(newEchoTool())).To(Succeed())
			Expect(reg.Register(newFailingTool(errors.New("x")))).To(Succeed())

			Expect(reg.Len()).To(Equal(2))
			Expect(reg.Names()).To(Equal([]string{"echo", "fail"}))

			h, ok := reg.Get("echo")
			Expect(ok).To(BeTrue())
			Expect(h.Name()).To(Equal("echo"))
		})

		It("rejects duplicate names", func() {
			Expect(reg.Register(newEchoTool())).To(Succeed())

			err := reg.Register(newEchoTool())
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, tool.ErrDuplicateTool)).To(BeTrue())
			Expect(reg.Len()).To(Equal(1))
		})

		It("rejects empty names", func() {
			h := tool.NewFunc("", "nameless", json.RawMessage(`{}`),
				func(_ context.Context, _ struct{}) (struct{}, error) {
					return struct{}{}, nil
				})

			Expect(reg.Register(h)).NotTo(Succeed())
		})
	})

	Describe("Definitions", func() {
		It("returns tools in the chat request wire format", func() {
			Expect(reg.Register(newEchoTool())).To(Succeed())

			defs := reg.Definitions()
			Expect(defs).To(HaveLen(1))
			Expect(defs[0].Type).To(Equal("function"))
			Expect(defs[0].Function.Name).To(Equal("echo"))
			Expect(defs[0].Function.Description).To(Equal("Echo the input text back."))
			Expect(string(defs[0].Function.Parameters)).To(MatchJSON(echoSchema))
		})

		It("returns definitions in registration order", func() {
			Expect(reg.Register(newFailingTool(errors.New("x")))).To(Succeed())
			Expect(reg.Register(newEchoTool())).To(Succeed())

			defs := reg.Definitions()
			Expect(defs).To(HaveLen(2))
			Expect(defs[0].Function.Name).To(Equal("fail"))
			Expect(defs[1].Function.Name).To(Equal("echo"))
		})

		It("returns an empty slice for an empty registry", func() {
			Expect(reg.Definitions()).To(BeEmpty())
		})
	})

	Describe("Dispatch", func() {
		BeforeEach(func() {
			Expect(reg.Register(newEchoTool())).To(Succeed())
		})

		It("routes to the named handler", func() {
			out, err := reg.Dispatch(ctx, "echo", json.RawMessage(`{"text":"hi"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(MatchJSON(`{"echoed":"hi"}`))
		})

		It("returns ErrUnknownTool for unregistered names", func() {
			_, err := reg.Dispatch(ctx, "nonexistent", json.RawMessage(`{}`))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, tool.ErrUnknownTool)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("nonexistent"))
		})

		It("normalizes empty arguments to an empty object", func() {
			out, err := reg.Dispatch(ctx, "echo", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(MatchJSON(`{"echoed":""}`))
		})

		It("normalizes whitespace-only arguments to an empty object", func() {
			out, err := reg.Dispatch(ctx, "echo", json.RawMessage("  \n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(MatchJSON(`{"echoed":""}`))
		})

		It("rejects arguments that are not valid JSON", func() {
			_, err := reg.Dispatch(ctx, "echo", json.RawMessage(`{"text":`))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, tool.ErrInvalidArguments)).To(BeTrue())
		})

		It("propagates handler errors", func() {
			boom := errors.New("boom")
			Expect(reg.Register(newFailingTool(boom))).To(Succeed())

			_, err := reg.Dispatch(ctx, "fail", json.RawMessage(`{}`))
			Expect(err).To(MatchError(boom))
		})
	})

	Describe("DispatchCall", func() {
		BeforeEach(func() {
			Expect(reg.Register(newEchoTool())).To(Succeed())
		})

		It("wraps the result in a tool-role message", func() {
			call := llm.ToolCall{
				ID:   "call_123",
				Type: "function",
				Function: llm.FunctionCall{
					Name:      "echo",
					Arguments: `{"text":"hi"}`,
				},
			}

			msg, err := reg.DispatchCall(ctx, call)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Role).To(Equal(llm.RoleTool))
			Expect(msg.ToolCallID).To(Equal("call_123"))
			Expect(msg.Content).To(MatchJSON(`{"echoed":"hi"}`))
		})

		It("surfaces dispatch errors", func() {
			call := llm.ToolCall{
				ID:   "call_456",
				Type: "function",
				Function: llm.FunctionCall{
					Name: "nonexistent",
				},
			}

			_, err := reg.DispatchCall(ctx, call)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, tool.ErrUnknownTool)).To(BeTrue())
		})
	})
})
