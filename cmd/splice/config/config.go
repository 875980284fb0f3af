// Package configcmder provides the config command for managing persistent
// splice configuration stored in the .splice/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent splice configuration.

Configuration is stored as config.toml in the .splice/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values, and SPLICE_-prefixed environment variables sit between
the two.

Keys use dotted notation matching the TOML section structure:
  api.base_url, api.key_env, api.model, api.timeout_seconds, api.max_retries,
  stream.read_buffer_bytes, stream.max_line_bytes, stream.buffer_capacity,
  stream.strict_tool_calls,
  telemetry.enabled, telemetry.brokers, telemetry.topic, telemetry.workers,
  telemetry.queue_size,
  mock.listen, mock.model, mock.delay_ms, mock.chunk_runes,
  mcp.listen

Use subcommands to initialize, get, set, or list configuration values:
  splice config init [--preset <name>]   Write a fresh config.toml
  splice config set <key> <value>        Set a configuration value
  splice config get <key>                Get a configuration value
  splice config list                     List all configuration values

Examples:
  splice config init --preset openrouter
  splice config set api.model gpt-4o
  splice config get telemetry.brokers
  splice config list`

const configShortDesc string = "Manage persistent splice configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
