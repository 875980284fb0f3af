// Package mcpcmder provides the MCP server cobra command.
package mcpcmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/api"
	"github.com/papercomputeco/splice/pkg/config"
	"github.com/papercomputeco/splice/pkg/logger"
	"github.com/papercomputeco/splice/pkg/tool/builtin"
)

type mcpCommander struct {
	listen string
	debug  bool
	logger *zap.Logger
}

var mcpFlagKeys = []string{
	config.FlagMCPListen,
}

const mcpLongDesc string = `Serve the built-in tools over the Model Context Protocol.

The server exposes /mcp (streamable HTTP transport) for MCP clients and
/tools for plain JSON inspection of the registered tools.`

const mcpShortDesc string = "Serve the built-in tools over MCP"

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), mcpFlagKeys)

			cmder.listen = v.GetString("mcp.listen")
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
	config.AddStringFlag(cmd, fs, config.FlagMCPListen, &cmder.listen)

	return cmd
}

func (c *mcpCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	registry, err := builtin.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	server, err := api.NewServer(api.Config{ListenAddr: c.listen}, registry, c.logger)
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	c.logger.Info("starting MCP server",
		zap.String("listen", c.listen),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("MCP server error: %w", err)
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
