package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/splice/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SPLICE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SPLICE_API_BASE_URL, SPLICE_MOCK_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: SPLICE_API_BASE_URL, SPLICE_TELEMETRY_BROKERS, etc.
	v.SetEnvPrefix("SPLICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.key_env", d.API.KeyEnv)
	v.SetDefault("api.model", d.API.Model)
	v.SetDefault("api.timeout_seconds", d.API.TimeoutSeconds)
	v.SetDefault("api.max_retries", d.API.MaxRetries)

	// Stream
	v.SetDefault("stream.read_buffer_bytes", d.Stream.ReadBufferBytes)
	v.SetDefault("stream.max_line_bytes", d.Stream.MaxLineBytes)
	v.SetDefault("stream.buffer_capacity", d.Stream.BufferCapacity)
	v.SetDefault("stream.strict_tool_calls", d.Stream.StrictToolCalls)

	// Telemetry
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.brokers", d.Telemetry.Brokers)
	v.SetDefault("telemetry.topic", d.Telemetry.Topic)
	v.SetDefault("telemetry.workers", d.Telemetry.Workers)
	v.SetDefault("telemetry.queue_size", d.Telemetry.QueueSize)

	// Mock server
	v.SetDefault("mock.listen", d.Mock.Listen)
	v.SetDefault("mock.model", d.Mock.Model)
	v.SetDefault("mock.delay_ms", d.Mock.DelayMs)
	v.SetDefault("mock.chunk_runes", d.Mock.ChunkRunes)

	// MCP server
	v.SetDefault("mcp.listen", d.MCP.Listen)
}
