package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --model
// on both "splice chat" and "splice mock").
type Flag struct {
	// Name is the long flag name (e.g. "base-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.base_url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// AddBoolFlag, and BindRegisteredFlags to avoid typos or drift from
// one command to another.
const (
	FlagBaseURL         = "base-url"
	FlagKeyEnv          = "key-env"
	FlagModel           = "model"
	FlagTimeout         = "timeout"
	FlagMaxRetries      = "max-retries"
	FlagBufferCapacity  = "buffer-capacity"
	FlagStrictToolCalls = "strict-tool-calls"
	FlagTelemetry       = "telemetry"
	FlagBrokers         = "brokers"
	FlagTopic           = "topic"
	FlagWorkers         = "workers"
	FlagQueueSize       = "queue-size"
	FlagMockModel       = "mock-model"
	FlagDelayMs         = "delay-ms"
	FlagChunkRunes      = "chunk-runes"

	// Standalone server commands use "listen" as the flag name
	// but bind to different viper keys depending on the service.
	FlagMockListen = "mock-listen"
	FlagMCPListen  = "mcp-listen"
)

// DefaultFlagSet returns the shared flag registry for the splice
// commands. Commands register the subset they need by registry key;
// the same flag name can map to different viper keys on different
// commands (--model is api.model on chat but mock.model on mock).
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagBaseURL:         {Name: "base-url", Shorthand: "u", ViperKey: "api.base_url", Description: "Chat completions API base URL"},
		FlagKeyEnv:          {Name: "key-env", ViperKey: "api.key_env", Description: "Environment variable holding the API key"},
		FlagModel:           {Name: "model", Shorthand: "m", ViperKey: "api.model", Description: "Model name requested from the API"},
		FlagTimeout:         {Name: "timeout", ViperKey: "api.timeout_seconds", Description: "Whole-request timeout in seconds"},
		FlagMaxRetries:      {Name: "max-retries", ViperKey: "api.max_retries", Description: "Request re-issues after the initial attempt"},
		FlagBufferCapacity:  {Name: "buffer-capacity", ViperKey: "stream.buffer_capacity", Description: "Transcript buffer capacity in bytes"},
		FlagStrictToolCalls: {Name: "strict-tool-calls", ViperKey: "stream.strict_tool_calls", Description: "Fail on tool calls that never received an id or name"},
		FlagTelemetry:       {Name: "telemetry", ViperKey: "telemetry.enabled", Description: "Publish stream summaries to Kafka"},
		FlagBrokers:         {Name: "brokers", ViperKey: "telemetry.brokers", Description: "Comma-separated Kafka bootstrap addresses"},
		FlagTopic:           {Name: "topic", ViperKey: "telemetry.topic", Description: "Kafka topic for stream summaries"},
		FlagWorkers:         {Name: "workers", ViperKey: "telemetry.workers", Description: "Telemetry worker pool size"},
		FlagQueueSize:       {Name: "queue-size", ViperKey: "telemetry.queue_size", Description: "Telemetry job queue capacity"},
		FlagMockModel:       {Name: "model", Shorthand: "m", ViperKey: "mock.model", Description: "Model name the mock server reports"},
		FlagDelayMs:         {Name: "delay-ms", ViperKey: "mock.delay_ms", Description: "Delay between streamed chunks in milliseconds"},
		FlagChunkRunes:      {Name: "chunk-runes", ViperKey: "mock.chunk_runes", Description: "Content runes per streamed chunk"},
		FlagMockListen:      {Name: "listen", Shorthand: "l", ViperKey: "mock.listen", Description: "Address for the mock server to listen on"},
		FlagMCPListen:       {Name: "listen", Shorthand: "l", ViperKey: "mcp.listen", Description: "Address for the MCP server to listen on"},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
