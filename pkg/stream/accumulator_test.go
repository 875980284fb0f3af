package stream_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/splice/pkg/llm"
	"github.com/papercomputeco/splice/pkg/stream"
)

var _ = Describe("ToolCallAccumulator", func() {
	var acc *stream.ToolCallAccumulator

	BeforeEach(func() {
		acc = stream.NewToolCallAccumulator()
	})

	Context("with a single call", func() {
		It("assembles id, name, and arguments across fragments", func() {
			acc.Ingest(llm.ToolCallFragment{Index: 0, ID: "call_1", Name: "get_weather"})
			acc.Ingest(llm.ToolCallFragment{Index: 0, ArgumentsDelta: `{"city":`})
			acc.Ingest(llm.ToolCallFragment{Index: 0, ArgumentsDelta: `"Oslo"}`})

			calls, err := acc.Finalize()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].ID).To(Equal("call_1"))
			Expect(calls[0].Type).To(Equal("function"))
			Expect(calls[0].Function.Name).To(Equal("get_weather"))
			Expect(calls[0].Function.Arguments).To(Equal(`{"city":"Oslo"}`))
		})

		It("keeps the first id and name when later fragments repeat them", func() {
			acc.Ingest(llm.ToolCallFragment{Index: 0, ID: "call_1", Name: "first"})
			acc.Ingest(llm.ToolCallFragment{Index: 0, ID: "call_9", Name: "second"})

			calls, err := acc.Finalize()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls[0].ID).To(Equal("call_1"))
			Expect(calls[0].Function.Name).To(Equal("first"))
		})

		It("reassembles arguments identically for any fragmentation", func() {
			args := `{"query":"weather in Oslo tomorrow","units":"metric","days":3}`

			for n := 1; n <= len(args); n++ {
				acc.Reset()
				acc.Ingest(llm.ToolCallFragment{Index: 0, ID: "call_1", Name: "search"})
				for start := 0; start < len(args); start += n {
					end := min(start+n, len(args))
					acc.Ingest(llm.ToolCallFragment{Index: 0, ArgumentsDelta: args[start:end]})
				}

				calls, err := acc.Finalize()
				Expect(err).NotTo(HaveOccurred())
				Expect(calls[0].Function.Arguments).To(Equal(args), fmt.Sprintf("fragment size %d", n))
			}
		})
	})

	Context("with parallel calls", func() {
		It("returns calls ordered by index regardless of arrival order", func() {
			acc.Ingest(llm.ToolCallFragment{Index: 2, ID: "call_c", Name: "third"})
			acc.Ingest(llm.ToolCallFragment{Index: 0, ID: "call_a", Name: "first"})
			acc.Ingest(llm.ToolCallFragment{Index: 1, ID: "call_b", Name: "second"})
			acc.Ingest(llm.ToolCallFragment{Index: 0, ArgumentsDelta: "{}"})

			calls, err := acc.Finalize()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(HaveLen(3))
			Expect(calls[0].ID).To(Equal("call_a"))
			Expect(calls[1].ID).To(Equal("call_b"))
			Expect(calls[2].ID).To(Equal("call_c"))
		})

		It("interleaves argument deltas per index without crosstalk", func() {
			acc.Ingest(llm.ToolCallFragment{Index: 0, ID: "a", Name: "one", ArgumentsDelta: `{"x"`})
			acc.Ingest(llm.ToolCallFragment{Index: 1, ID: "b", Name: "two", ArgumentsDelta: `{"y"`})
			acc.Ingest(llm.ToolCallFragment{Index: 0, ArgumentsDelta: `:1}`})
			acc.Ingest(llm.ToolCallFragment{Index: 1, ArgumentsDelta: `:2}`})

			calls, err := acc.Finalize()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls[0].Function.Arguments).To(Equal(`{"x":1}`))
			Expect(calls[1].Function.Arguments).To(Equal(`{"y":2}`))
		})
	})

	Context("with incomplete calls", func() {
		It("returns empty fields rather than dropping the call", func() {
			acc.Ingest(llm.ToolCallFragment{Index: 0, ArgumentsDelta: `{"orphaned":true}`})

			calls, err := acc.Finalize()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].ID).To(BeEmpty())
			Expect(calls[0].Function.Name).To(BeEmpty())
			Expect(calls[0].Function.Arguments).To(Equal(`{"orphaned":true}`))
		})

		It("fails under strict finalize", func() {
			strict := stream.NewToolCallAccumulator(stream.WithStrictFinalize())
			strict.Ingest(llm.ToolCallFragment{Index: 3, ArgumentsDelta: "{}"})

			_, err := strict.Finalize()

			var incomplete *stream.ErrIncompleteToolCall
			Expect(errors.As(err, &incomplete)).To(BeTrue())
			Expect(incomplete.Index).To(Equal(3))
		})

		It("passes strict finalize once id and name are present", func() {
			strict := stream.NewToolCallAccumulator(stream.WithStrictFinalize())
			strict.Ingest(llm.ToolCallFragment{Index: 0, ID: "call_1", Name: "ok", ArgumentsDelta: "{}"})

			calls, err := strict.Finalize()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(HaveLen(1))
		})
	})

	Context("fed whole chunks", func() {
		It("folds every fragment a chunk carries", func() {
			chunk, err := stream.ParseLine(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"clock","arguments":""}},{"index":1,"id":"call_2","function":{"name":"add","arguments":"{\"a\":1,\"b\":2}"}}]},"finish_reason":null}]}`)
			Expect(err).NotTo(HaveOccurred())

			acc.IngestChunk(chunk)
			Expect(acc.Len()).To(Equal(2))

			calls, err := acc.Finalize()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls[1].Function.Arguments).To(Equal(`{"a":1,"b":2}`))
		})

		It("ignores nil and tool-free chunks", func() {
			acc.IngestChunk(nil)
			acc.IngestChunk(&llm.StreamChunk{ContentDelta: "plain text"})
			Expect(acc.Len()).To(BeZero())

			calls, err := acc.Finalize()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(BeEmpty())
		})
	})

	It("clears state on Reset", func() {
		acc.Ingest(llm.ToolCallFragment{Index: 0, ID: "call_1", Name: "x"})
		acc.Reset()
		Expect(acc.Len()).To(BeZero())

		calls, err := acc.Finalize()
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(BeEmpty())
	})
})
