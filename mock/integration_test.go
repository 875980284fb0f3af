package mock

import (
	"context"
	"errors"
	"net"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/client"
	"github.com/papercomputeco/splice/pkg/llm"
	testutils "github.com/papercomputeco/splice/pkg/utils/test"
)

// Full loop over a real socket: client -> mock server -> SSE -> engine.
var _ = Describe("Client against a live mock server", func() {
	var (
		server    *Server
		c         *client.Client
		publisher *testutils.CapturePublisher
	)

	BeforeEach(func() {
		var err error
		server, err = New(Config{Model: "mock-gpt"}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			defer GinkgoRecover()
			_ = server.RunWithListener(listener)
		}()

		publisher = testutils.NewCapturePublisher()
		c, err = client.New("http://"+listener.Addr().String()+"/v1",
			client.WithPublisher(publisher),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(server.Shutdown()).To(Succeed())
	})

	It("streams a completion end to end", func() {
		server.SetScripts(Script{Reply: "streamed over a real socket"})

		st, err := c.ChatStream(context.Background(), &llm.ChatRequest{
			Model:    "mock-gpt",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
		})
		Expect(err).NotTo(HaveOccurred())

		comp, err := c.CollectStream(context.Background(), st, "mock-gpt")
		Expect(err).NotTo(HaveOccurred())
		Expect(comp.Content).To(Equal("streamed over a real socket"))
		Expect(comp.Role).To(Equal(llm.RoleAssistant))
		Expect(comp.Usage).NotTo(BeNil())

		summaries := publisher.Summaries()
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0].Streaming).To(BeTrue())
		Expect(summaries[0].ContentBytes).To(Equal(len(comp.Content)))
	})

	It("streams scripted tool calls end to end", func() {
		server.SetScripts(Script{
			ToolCalls: []ToolCallScript{{
				ID:        "call_42",
				Name:      "calculate",
				Arguments: `{"op":"mul","a":6,"b":7}`,
			}},
		})

		st, err := c.ChatStream(context.Background(), &llm.ChatRequest{
			Model:    "mock-gpt",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "6*7?")},
		})
		Expect(err).NotTo(HaveOccurred())

		comp, err := c.CollectStream(context.Background(), st, "mock-gpt")
		Expect(err).NotTo(HaveOccurred())
		Expect(comp.ToolCalls).To(HaveLen(1))
		Expect(comp.ToolCalls[0].Function.Name).To(Equal("calculate"))
		Expect(comp.ToolCalls[0].Function.Arguments).To(Equal(`{"op":"mul","a":6,"b":7}`))
		Expect(comp.FinishReason).To(Equal(llm.FinishReasonToolCalls))
	})

	It("completes without streaming", func() {
		server.SetScripts(Script{Reply: "plain response"})

		resp, err := c.Chat(context.Background(), &llm.ChatRequest{
			Model:    "mock-gpt",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Text()).To(Equal("plain response"))
		Expect(resp.Usage).NotTo(BeNil())

		summaries := publisher.Summaries()
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0].Streaming).To(BeFalse())
	})

})

var _ = Describe("Client authentication against a live mock server", func() {
	It("decodes the error envelope on a rejected key", func() {
		server, err := New(Config{Model: "mock-gpt", APIKey: "sk-right"}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		go func() {
			defer GinkgoRecover()
			_ = server.RunWithListener(listener)
		}()
		defer func() {
			Expect(server.Shutdown()).To(Succeed())
		}()

		c, err := client.New("http://"+listener.Addr().String()+"/v1",
			client.WithAPIKey("sk-wrong"),
		)
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Chat(context.Background(), &llm.ChatRequest{
			Model:    "mock-gpt",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
		})

		var apiErr *llm.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.StatusCode).To(Equal(401))
	})
})
