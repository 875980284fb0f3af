package tool_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/splice/pkg/tool"
)

type echoInput struct {
	Text string `json:"text"`
}

type echoOutput struct {
	Echoed string `json:"echoed"`
}

const echoSchema = `{"type":"object","properties":{"text":{"type":"string"}}}`

func newEchoTool() tool.Handler {
	return tool.NewFunc("echo", "Echo the input text back.",
		json.RawMessage(echoSchema),
		func(_ context.Context, in echoInput) (echoOutput, error) {
			return echoOutput{Echoed: in.Text}, nil
		})
}

func newFailingTool(err error) tool.Handler {
	return tool.NewFunc("fail", "Always fails.",
		json.RawMessage(`{"type":"object"}`),
		func(_ context.Context, _ struct{}) (struct{}, error) {
			return struct{}{}, err
		})
}

var _ = Describe("Func", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("exposes name, description, and schema", func() {
		h := newEchoTool()
		Expect(h.Name()).To(Equal("echo"))
		Expect(h.Description()).To(Equal("Echo the input text back."))
		Expect(string(h.ParametersSchema())).To(Equal(echoSchema))
	})

	It("unmarshals arguments and marshals the result", func() {
		h := newEchoTool()

		out, err := h.Execute(ctx, json.RawMessage(`{"text":"hello"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(MatchJSON(`{"echoed":"hello"}`))
	})

	It("runs with zero-value input when no arguments are given", func() {
		h := newEchoTool()

		out, err := h.Execute(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(MatchJSON(`{"echoed":""}`))
	})

	It("returns ErrInvalidArguments when arguments do not fit the input type", func() {
		h := newEchoTool()

		_, err := h.Execute(ctx, json.RawMessage(`{"text":42}`))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, tool.ErrInvalidArguments)).To(BeTrue())
	})

	It("propagates errors from the wrapped function", func() {
		boom := errors.New("boom")
		h := newFailingTool(boom)

		_, err := h.Execute(ctx, json.RawMessage(`{}`))
		Expect(err).To(MatchError(boom))
	})
})
