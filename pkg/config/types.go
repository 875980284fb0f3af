package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent splice configuration stored as
// config.toml in the .splice/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	API       APIConfig       `toml:"api"`
	Stream    StreamConfig    `toml:"stream"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Mock      MockConfig      `toml:"mock"`
	MCP       MCPConfig       `toml:"mcp"`
}

// APIConfig holds settings for the upstream chat-completions endpoint.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string `toml:"base_url,omitempty"`

	// KeyEnv names the environment variable holding the API key. The
	// key itself never lands in the config file.
	KeyEnv string `toml:"key_env,omitempty"`

	Model          string `toml:"model,omitempty"`
	TimeoutSeconds uint   `toml:"timeout_seconds,omitempty"`
	MaxRetries     uint   `toml:"max_retries,omitempty"`
}

// StreamConfig holds tuning knobs for the streaming engine.
type StreamConfig struct {
	ReadBufferBytes uint `toml:"read_buffer_bytes,omitempty"`
	MaxLineBytes    uint `toml:"max_line_bytes,omitempty"`
	BufferCapacity  uint `toml:"buffer_capacity,omitempty"`

	// StrictToolCalls makes tool-call finalization fail on calls that
	// never received an id or name, instead of passing them through
	// with empty fields.
	StrictToolCalls bool `toml:"strict_tool_calls,omitempty"`
}

// TelemetryConfig holds settings for publishing per-stream summaries
// to Kafka.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled,omitempty"`

	// Brokers is a comma-separated list of Kafka bootstrap addresses.
	Brokers string `toml:"brokers,omitempty"`

	Topic     string `toml:"topic,omitempty"`
	Workers   uint   `toml:"workers,omitempty"`
	QueueSize uint   `toml:"queue_size,omitempty"`
}

// MockConfig holds settings for the local mock chat-completions server.
type MockConfig struct {
	Listen string `toml:"listen,omitempty"`
	Model  string `toml:"model,omitempty"`

	// DelayMs paces chunk emission to simulate generation latency.
	DelayMs uint `toml:"delay_ms,omitempty"`

	// ChunkRunes is how many runes of content each streamed chunk
	// carries.
	ChunkRunes uint `toml:"chunk_runes,omitempty"`
}

// MCPConfig holds settings for the MCP tool server.
type MCPConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(get func(c *Config) uint, set func(c *Config, n uint), name string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			set(c, uint(n))
			return nil
		},
	}
}

func boolKey(get func(c *Config) bool, set func(c *Config, b bool), name string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(get(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			set(c, b)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.base_url": {
		get: func(c *Config) string { return c.API.BaseURL },
		set: func(c *Config, v string) error { c.API.BaseURL = v; return nil },
	},
	"api.key_env": {
		get: func(c *Config) string { return c.API.KeyEnv },
		set: func(c *Config, v string) error { c.API.KeyEnv = v; return nil },
	},
	"api.model": {
		get: func(c *Config) string { return c.API.Model },
		set: func(c *Config, v string) error { c.API.Model = v; return nil },
	},
	"api.timeout_seconds": uintKey(
		func(c *Config) uint { return c.API.TimeoutSeconds },
		func(c *Config, n uint) { c.API.TimeoutSeconds = n },
		"api.timeout_seconds",
	),
	"api.max_retries": uintKey(
		func(c *Config) uint { return c.API.MaxRetries },
		func(c *Config, n uint) { c.API.MaxRetries = n },
		"api.max_retries",
	),
	"stream.read_buffer_bytes": uintKey(
		func(c *Config) uint { return c.Stream.ReadBufferBytes },
		func(c *Config, n uint) { c.Stream.ReadBufferBytes = n },
		"stream.read_buffer_bytes",
	),
	"stream.max_line_bytes": uintKey(
		func(c *Config) uint { return c.Stream.MaxLineBytes },
		func(c *Config, n uint) { c.Stream.MaxLineBytes = n },
		"stream.max_line_bytes",
	),
	"stream.buffer_capacity": uintKey(
		func(c *Config) uint { return c.Stream.BufferCapacity },
		func(c *Config, n uint) { c.Stream.BufferCapacity = n },
		"stream.buffer_capacity",
	),
	"stream.strict_tool_calls": boolKey(
		func(c *Config) bool { return c.Stream.StrictToolCalls },
		func(c *Config, b bool) { c.Stream.StrictToolCalls = b },
		"stream.strict_tool_calls",
	),
	"telemetry.enabled": boolKey(
		func(c *Config) bool { return c.Telemetry.Enabled },
		func(c *Config, b bool) { c.Telemetry.Enabled = b },
		"telemetry.enabled",
	),
	"telemetry.brokers": {
		get: func(c *Config) string { return c.Telemetry.Brokers },
		set: func(c *Config, v string) error { c.Telemetry.Brokers = v; return nil },
	},
	"telemetry.topic": {
		get: func(c *Config) string { return c.Telemetry.Topic },
		set: func(c *Config, v string) error { c.Telemetry.Topic = v; return nil },
	},
	"telemetry.workers": uintKey(
		func(c *Config) uint { return c.Telemetry.Workers },
		func(c *Config, n uint) { c.Telemetry.Workers = n },
		"telemetry.workers",
	),
	"telemetry.queue_size": uintKey(
		func(c *Config) uint { return c.Telemetry.QueueSize },
		func(c *Config, n uint) { c.Telemetry.QueueSize = n },
		"telemetry.queue_size",
	),
	"mock.listen": {
		get: func(c *Config) string { return c.Mock.Listen },
		set: func(c *Config, v string) error { c.Mock.Listen = v; return nil },
	},
	"mock.model": {
		get: func(c *Config) string { return c.Mock.Model },
		set: func(c *Config, v string) error { c.Mock.Model = v; return nil },
	},
	"mock.delay_ms": uintKey(
		func(c *Config) uint { return c.Mock.DelayMs },
		func(c *Config, n uint) { c.Mock.DelayMs = n },
		"mock.delay_ms",
	),
	"mock.chunk_runes": uintKey(
		func(c *Config) uint { return c.Mock.ChunkRunes },
		func(c *Config, n uint) { c.Mock.ChunkRunes = n },
		"mock.chunk_runes",
	),
	"mcp.listen": {
		get: func(c *Config) string { return c.MCP.Listen },
		set: func(c *Config, v string) error { c.MCP.Listen = v; return nil },
	},
}
