// Package mockcmder provides the mock server cobra command.
package mockcmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/mock"
	"github.com/papercomputeco/splice/pkg/config"
	"github.com/papercomputeco/splice/pkg/logger"
)

type mockCommander struct {
	listen     string
	model      string
	delayMs    uint
	chunkRunes uint
	debug      bool
	logger     *zap.Logger
}

var mockFlagKeys = []string{
	config.FlagMockListen,
	config.FlagMockModel,
	config.FlagDelayMs,
	config.FlagChunkRunes,
}

const mockLongDesc string = `Run a mock chat-completions server for development and testing.

The server speaks the OpenAI-compatible wire format: POST /v1/chat/completions
answers both streaming (SSE) and non-streaming requests, and scripted replies
can be loaded over POST /mock/scripts. Without a script it echoes the last
user message.

Set SPLICE_MOCK_KEY to require "Authorization: Bearer <key>" on every request.

Point the chat command at it:
  splice mock --listen 127.0.0.1:8090
  splice chat --base-url http://127.0.0.1:8090/v1 --model mock-gpt`

const mockShortDesc string = "Run a mock chat-completions server"

func NewMockCmd() *cobra.Command {
	cmder := &mockCommander{}

	cmd := &cobra.Command{
		Use:   "mock",
		Short: mockShortDesc,
		Long:  mockLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), mockFlagKeys)

			cmder.listen = v.GetString("mock.listen")
			cmder.model = v.GetString("mock.model")
			cmder.delayMs = v.GetUint("mock.delay_ms")
			cmder.chunkRunes = v.GetUint("mock.chunk_runes")
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
	config.AddStringFlag(cmd, fs, config.FlagMockListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagMockModel, &cmder.model)
	config.AddUintFlag(cmd, fs, config.FlagDelayMs, &cmder.delayMs)
	config.AddUintFlag(cmd, fs, config.FlagChunkRunes, &cmder.chunkRunes)

	return cmd
}

func (c *mockCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	server, err := mock.New(mock.Config{
		ListenAddr: c.listen,
		Model:      c.model,
		APIKey:     os.Getenv("SPLICE_MOCK_KEY"),
		ChunkRunes: int(c.chunkRunes),
		Delay:      time.Duration(c.delayMs) * time.Millisecond,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating mock server: %w", err)
	}

	c.logger.Info("starting mock server",
		zap.String("listen", c.listen),
		zap.String("model", c.model),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("mock server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
