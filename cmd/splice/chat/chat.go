// Package chatcmder provides the chat command: an interactive terminal
// session against any OpenAI-compatible chat-completions endpoint, with
// streamed output and built-in tool dispatch.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/client"
	"github.com/papercomputeco/splice/pkg/cliui"
	"github.com/papercomputeco/splice/pkg/config"
	"github.com/papercomputeco/splice/pkg/llm"
	"github.com/papercomputeco/splice/pkg/logger"
	"github.com/papercomputeco/splice/pkg/stream"
	"github.com/papercomputeco/splice/pkg/telemetry"
	"github.com/papercomputeco/splice/pkg/telemetry/kafka"
	"github.com/papercomputeco/splice/pkg/telemetry/worker"
	"github.com/papercomputeco/splice/pkg/tool"
	"github.com/papercomputeco/splice/pkg/tool/builtin"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

// maxToolRounds bounds the dispatch loop for a single user turn so a
// model stuck requesting tools cannot spin forever.
const maxToolRounds = 8

type chatCommander struct {
	baseURL    string
	keyEnv     string
	model      string
	timeout    uint
	maxRetries uint

	readBuffer uint
	maxLine    uint
	bufferCap  uint
	strict     bool

	telemetryEnabled bool
	brokers          string
	topic            string
	workers          uint
	queueSize        uint

	system  string
	render  bool
	logFile string
	noTools bool
	debug   bool

	logger     *slog.Logger
	pool       *worker.Pool
	transcript *stream.BoundedBuffer
}

// chatFlagKeys are the registry keys bound to viper in PreRunE.
var chatFlagKeys = []string{
	config.FlagBaseURL,
	config.FlagKeyEnv,
	config.FlagModel,
	config.FlagTimeout,
	config.FlagMaxRetries,
	config.FlagBufferCapacity,
	config.FlagStrictToolCalls,
	config.FlagTelemetry,
	config.FlagBrokers,
	config.FlagTopic,
	config.FlagWorkers,
	config.FlagQueueSize,
}

const chatLongDesc string = `Start an interactive chat session against a chat-completions endpoint.

Replies stream to the terminal as they are generated. When the model
requests a tool, the built-in tools run locally and the results feed
back into the conversation automatically.

The API key is read from the environment variable named by --key-env
(or api.key_env in config.toml). A .env file in the working directory
is loaded on startup.

Examples:
  splice chat
  splice chat --model gpt-4o --base-url https://api.openai.com/v1
  splice chat --render --system "You are terse."
  splice chat --telemetry --brokers localhost:9092`

const chatShortDesc string = "Interactive streaming chat"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), chatFlagKeys)

			cmder.baseURL = v.GetString("api.base_url")
			cmder.keyEnv = v.GetString("api.key_env")
			cmder.model = v.GetString("api.model")
			cmder.timeout = v.GetUint("api.timeout_seconds")
			cmder.maxRetries = v.GetUint("api.max_retries")
			cmder.readBuffer = v.GetUint("stream.read_buffer_bytes")
			cmder.maxLine = v.GetUint("stream.max_line_bytes")
			cmder.bufferCap = v.GetUint("stream.buffer_capacity")
			cmder.strict = v.GetBool("stream.strict_tool_calls")
			cmder.telemetryEnabled = v.GetBool("telemetry.enabled")
			cmder.brokers = v.GetString("telemetry.brokers")
			cmder.topic = v.GetString("telemetry.topic")
			cmder.workers = v.GetUint("telemetry.workers")
			cmder.queueSize = v.GetUint("telemetry.queue_size")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	fs := config.DefaultFlagSet()
	config.AddStringFlag(cmd, fs, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, fs, config.FlagKeyEnv, &cmder.keyEnv)
	config.AddStringFlag(cmd, fs, config.FlagModel, &cmder.model)
	config.AddUintFlag(cmd, fs, config.FlagTimeout, &cmder.timeout)
	config.AddUintFlag(cmd, fs, config.FlagMaxRetries, &cmder.maxRetries)
	config.AddUintFlag(cmd, fs, config.FlagBufferCapacity, &cmder.bufferCap)
	config.AddBoolFlag(cmd, fs, config.FlagStrictToolCalls, &cmder.strict)
	config.AddBoolFlag(cmd, fs, config.FlagTelemetry, &cmder.telemetryEnabled)
	config.AddStringFlag(cmd, fs, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, fs, config.FlagTopic, &cmder.topic)
	config.AddUintFlag(cmd, fs, config.FlagWorkers, &cmder.workers)
	config.AddUintFlag(cmd, fs, config.FlagQueueSize, &cmder.queueSize)

	cmd.Flags().StringVar(&cmder.system, "system", "", "System prompt for the conversation")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render replies as markdown once complete (disables incremental output)")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.noTools, "no-tools", false, "Disable the built-in tools")

	return cmd
}

func (c *chatCommander) run() error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		log = logger.Multi(log, logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(f)))
	}
	c.logger = log

	// Telemetry and client internals log through zap; keep them quiet
	// unless --debug so the conversation owns the terminal.
	zlog := zap.NewNop()
	if c.debug {
		zlog = logger.NewLogger(true)
	}

	if c.telemetryEnabled {
		tc := config.TelemetryConfig{Brokers: c.brokers}
		pub, err := kafka.NewPublisher(&kafka.Config{
			Brokers: tc.KafkaBrokers(),
			Topic:   c.topic,
			Logger:  zlog,
		})
		if err != nil {
			return fmt.Errorf("creating telemetry publisher: %w", err)
		}

		pool, err := worker.NewPool(&worker.Config{
			Publisher:  pub,
			NumWorkers: c.workers,
			QueueSize:  c.queueSize,
			Logger:     zlog,
		})
		if err != nil {
			return fmt.Errorf("creating telemetry pool: %w", err)
		}
		c.pool = pool
		defer func() {
			pool.Close()
			_ = pub.Close()
		}()
	}

	var registry *tool.Registry
	if !c.noTools {
		var err error
		registry, err = builtin.DefaultRegistry()
		if err != nil {
			return fmt.Errorf("building tool registry: %w", err)
		}
	}

	apiKey := os.Getenv(c.keyEnv)
	if apiKey == "" {
		c.logger.Warn("no API key found in environment", "env", c.keyEnv)
	}

	retry := client.DefaultRetryPolicy()
	retry.MaxRetries = c.maxRetries

	cli, err := client.New(c.baseURL,
		client.WithAPIKey(apiKey),
		client.WithTimeout(time.Duration(c.timeout)*time.Second),
		client.WithRetryPolicy(retry),
		client.WithLogger(zlog),
		client.WithStreamOptions(
			stream.WithReadBufferSize(int(c.readBuffer)),
			stream.WithMaxLineLen(int(c.maxLine)),
		),
	)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	c.transcript = stream.NewBoundedBuffer(int(c.bufferCap))

	var messages []llm.Message
	if c.system != "" {
		messages = append(messages, llm.NewTextMessage(llm.RoleSystem, c.system))
	}

	c.printBanner(registry)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}
		if input == "/transcript" {
			c.printTranscript()
			continue
		}

		messages = append(messages, llm.NewTextMessage(llm.RoleUser, input))

		next, err := c.completeTurn(context.Background(), cli, registry, messages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\n  %s %v\n", cliui.FailMark, err)
			// Remove the failed user message so we can retry
			messages = messages[:len(messages)-1]
			continue
		}
		messages = next

		fmt.Println()
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

func (c *chatCommander) printBanner(registry *tool.Registry) {
	fmt.Println()
	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render("Endpoint:"),
		cliui.ValueStyle.Render(c.baseURL),
	)
	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(c.model),
	)
	if registry != nil {
		fmt.Printf("  %s %s\n",
			cliui.KeyStyle.Render("Tools:"),
			cliui.DimStyle.Render(strings.Join(registry.Names(), ", ")),
		)
	}
	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /transcript shows the reply log, /exit or Ctrl+D quits."))
}

// completeTurn runs one user turn to completion: it streams the
// assistant reply and, while the model keeps finishing with tool calls,
// dispatches them and streams the follow-up. Returns the extended
// message history.
func (c *chatCommander) completeTurn(ctx context.Context, cli *client.Client, registry *tool.Registry, messages []llm.Message) ([]llm.Message, error) {
	var tools []llm.Tool
	if registry != nil {
		tools = registry.Definitions()
	}

	for round := 0; ; round++ {
		t, err := c.streamTurn(ctx, cli, messages, tools)
		c.publishSummary(t, err)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("turn complete",
			"chunks", t.chunks,
			"tool_calls", len(t.toolCalls),
			"finish_reason", string(t.finishReason),
			"duration", t.duration,
		)

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   t.content.String(),
			ToolCalls: t.toolCalls,
		})
		c.appendTranscript(t.content.String())

		if registry == nil || t.finishReason != llm.FinishReasonToolCalls || len(t.toolCalls) == 0 {
			return messages, nil
		}
		if round+1 >= maxToolRounds {
			return messages, fmt.Errorf("model requested tools %d rounds in a row, giving up", maxToolRounds)
		}

		fmt.Println()
		for _, call := range t.toolCalls {
			messages = append(messages, c.dispatchCall(ctx, registry, call))
		}
	}
}

// turn is the folded result of one streamed assistant reply.
type turn struct {
	content      strings.Builder
	toolCalls    []llm.ToolCall
	finishReason llm.FinishReason
	usage        *llm.Usage
	chunks       int
	printing     bool
	started      time.Time
	duration     time.Duration
}

// streamTurn sends the conversation and folds the streamed reply,
// printing content deltas as they arrive. A spinner covers the wait for
// the first token (or the whole stream under --render).
func (c *chatCommander) streamTurn(ctx context.Context, cli *client.Client, messages []llm.Message, tools []llm.Tool) (*turn, error) {
	t := &turn{started: time.Now()}

	sp := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = "  waiting for " + c.model
	sp.Start()
	spinning := true
	stopSpinner := func() {
		if spinning {
			sp.Stop()
			spinning = false
		}
	}
	defer stopSpinner()

	st, err := cli.ChatStream(ctx, &llm.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return t, err
	}
	defer st.Close()

	var accOpts []stream.AccumulatorOption
	if c.strict {
		accOpts = append(accOpts, stream.WithStrictFinalize())
	}
	acc := stream.NewToolCallAccumulator(accOpts...)

	for {
		chunk, err := st.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			stopSpinner()
			return t, err
		}
		if chunk.Done {
			continue
		}

		t.chunks++
		if chunk.FinishReason != "" {
			t.finishReason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			t.usage = chunk.Usage
		}
		acc.IngestChunk(chunk)

		if chunk.ContentDelta == "" {
			continue
		}
		t.content.WriteString(chunk.ContentDelta)

		if c.render {
			continue
		}
		if !t.printing {
			stopSpinner()
			fmt.Print(assistantPrompt)
			t.printing = true
		}
		fmt.Print(chunk.ContentDelta)
	}
	stopSpinner()
	t.duration = time.Since(t.started)

	calls, err := acc.Finalize()
	if err != nil {
		return t, err
	}
	t.toolCalls = calls

	if c.render && t.content.Len() > 0 {
		rendered, rerr := cliui.RenderMarkdown(t.content.String(), cliui.TerminalWidth(80))
		if rerr != nil {
			c.logger.Debug("markdown render failed", "error", rerr)
		}
		fmt.Println(assistantPrompt)
		fmt.Print(rendered)
		t.printing = true
	}

	return t, nil
}

// dispatchCall executes one tool call and wraps the outcome in the
// tool-role message the follow-up request wants. Failures go back to
// the model in-band so it can react instead of the session dying.
func (c *chatCommander) dispatchCall(ctx context.Context, registry *tool.Registry, call llm.ToolCall) llm.Message {
	var result llm.Message
	err := cliui.Step(os.Stderr, "calling "+call.Function.Name, func() error {
		var derr error
		result, derr = registry.DispatchCall(ctx, call)
		return derr
	})
	if err != nil {
		return llm.NewToolResultMessage(call.ID, fmt.Sprintf("tool %q failed: %v", call.Function.Name, err))
	}
	return result
}

// appendTranscript adds an assistant reply to the bounded transcript,
// compacting to half capacity at the high-water mark. A reply that
// cannot fit even after compaction is dropped from the transcript; the
// conversation history is unaffected.
func (c *chatCommander) appendTranscript(text string) {
	if text == "" {
		return
	}

	if err := c.transcript.Append(text); err != nil {
		c.transcript.Compact(c.transcript.Cap() / 2)
		if err := c.transcript.Append(text); err != nil {
			c.logger.Debug("reply too large for transcript", "bytes", len(text))
			return
		}
	}

	if c.transcript.IsHighWater() {
		c.transcript.Compact(c.transcript.Cap() / 2)
		fmt.Fprintf(os.Stderr, "  %s\n", cliui.DimStyle.Render(
			fmt.Sprintf("transcript compacted to %d bytes", c.transcript.Len()),
		))
	}
}

func (c *chatCommander) printTranscript() {
	if c.transcript.Len() == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("Transcript is empty."))
		return
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Transcript"),
		cliui.DimStyle.Render(fmt.Sprintf("(%d/%d bytes)", c.transcript.Len(), c.transcript.Cap())),
	)

	content := c.transcript.Content()
	if c.render {
		if rendered, err := cliui.RenderMarkdown(content, cliui.TerminalWidth(80)); err == nil {
			content = rendered
		}
	}
	fmt.Println(content)
}

// publishSummary enqueues a telemetry summary for one streamed turn.
// The pool drops summaries rather than block the conversation.
func (c *chatCommander) publishSummary(t *turn, streamErr error) {
	if c.pool == nil || t == nil {
		return
	}

	summary := telemetry.NewStreamSummary(c.model)
	summary.Streaming = true
	summary.Chunks = t.chunks
	summary.ContentBytes = t.content.Len()
	summary.ToolCalls = len(t.toolCalls)
	summary.FinishReason = string(t.finishReason)
	summary.DurationMs = time.Since(t.started).Milliseconds()
	summary.Usage = t.usage
	if streamErr != nil {
		summary.Failed = true
		summary.Error = streamErr.Error()
	}

	c.pool.Enqueue(worker.Job{Summary: summary})
}
