package stream

import (
	"sort"
	"strings"

	"github.com/papercomputeco/splice/pkg/llm"
)

// ToolCallAccumulator folds the tool-call fragments of a streamed
// response into completed tool calls. Fragments sharing an index
// belong to one call: the id and function name arrive once, the
// arguments arrive split across arbitrarily many fragments and are
// concatenated verbatim in arrival order.
//
// An accumulator belongs to a single response and is not safe for
// concurrent use.
type ToolCallAccumulator struct {
	records map[int]*toolCallRecord
	strict  bool
}

type toolCallRecord struct {
	id   string
	name string
	args strings.Builder
}

// AccumulatorOption configures a ToolCallAccumulator.
type AccumulatorOption func(*ToolCallAccumulator)

// WithStrictFinalize makes Finalize fail with *ErrIncompleteToolCall
// when a call never received an id or a name, instead of returning the
// call with empty fields. Use it when downstream dispatch cannot
// tolerate anonymous calls.
func WithStrictFinalize() AccumulatorOption {
	return func(a *ToolCallAccumulator) {
		a.strict = true
	}
}

// NewToolCallAccumulator creates an empty accumulator.
func NewToolCallAccumulator(opts ...AccumulatorOption) *ToolCallAccumulator {
	a := &ToolCallAccumulator{
		records: make(map[int]*toolCallRecord),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ingest folds one fragment into the accumulator. The first fragment
// to carry an id or name wins; later values for either are ignored
// rather than treated as errors, since providers re-send them
// redundantly. Argument deltas always append.
func (a *ToolCallAccumulator) Ingest(frag llm.ToolCallFragment) {
	rec, ok := a.records[frag.Index]
	if !ok {
		rec = &toolCallRecord{}
		a.records[frag.Index] = rec
	}

	if rec.id == "" && frag.ID != "" {
		rec.id = frag.ID
	}
	if rec.name == "" && frag.Name != "" {
		rec.name = frag.Name
	}
	rec.args.WriteString(frag.ArgumentsDelta)
}

// IngestChunk folds every tool-call fragment carried by the chunk.
// Chunks without tool calls are a no-op, so callers can feed every
// received chunk unconditionally.
func (a *ToolCallAccumulator) IngestChunk(chunk *llm.StreamChunk) {
	if chunk == nil {
		return
	}
	for _, frag := range chunk.ToolCalls {
		a.Ingest(frag)
	}
}

// Len returns the number of in-progress tool calls.
func (a *ToolCallAccumulator) Len() int {
	return len(a.records)
}

// Reset clears all accumulated state so the accumulator can serve the
// next response.
func (a *ToolCallAccumulator) Reset() {
	a.records = make(map[int]*toolCallRecord)
}

// Finalize returns the accumulated calls ordered by index ascending.
// No attempt is made to parse arguments as JSON; the model may have
// produced anything, and parsing is the caller's decision.
//
// A call that never received an id or name is returned with empty
// string fields rather than dropped, so no call silently disappears;
// under WithStrictFinalize it fails instead. Finalize does not consume
// the accumulator.
func (a *ToolCallAccumulator) Finalize() ([]llm.ToolCall, error) {
	if len(a.records) == 0 {
		return nil, nil
	}

	indexes := make([]int, 0, len(a.records))
	for idx := range a.records {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	calls := make([]llm.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		rec := a.records[idx]
		if a.strict && (rec.id == "" || rec.name == "") {
			return nil, &ErrIncompleteToolCall{Index: idx}
		}
		calls = append(calls, llm.ToolCall{
			ID:   rec.id,
			Type: "function",
			Function: llm.FunctionCall{
				Name:      rec.name,
				Arguments: rec.args.String(),
			},
		})
	}

	return calls, nil
}
