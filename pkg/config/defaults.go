package config

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultKeyEnv         = "OPENAI_API_KEY"
	defaultModel          = "gpt-4o-mini"
	defaultTimeoutSeconds = 300
	defaultMaxRetries     = 2

	defaultReadBufferBytes = 4096
	defaultMaxLineBytes    = 1 << 20
	defaultBufferCapacity  = 64 * 1024

	defaultBrokers   = "localhost:9092"
	defaultTopic     = "splice.stream.summaries"
	defaultWorkers   = 3
	defaultQueueSize = 256

	defaultMockListen = "127.0.0.1:8090"
	defaultMockModel  = "mock-gpt"
	defaultDelayMs    = 20
	defaultChunkRunes = 8

	defaultMCPListen = "127.0.0.1:8091"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			BaseURL:        defaultBaseURL,
			KeyEnv:         defaultKeyEnv,
			Model:          defaultModel,
			TimeoutSeconds: defaultTimeoutSeconds,
			MaxRetries:     defaultMaxRetries,
		},
		Stream: StreamConfig{
			ReadBufferBytes: defaultReadBufferBytes,
			MaxLineBytes:    defaultMaxLineBytes,
			BufferCapacity:  defaultBufferCapacity,
		},
		Telemetry: TelemetryConfig{
			Brokers:   defaultBrokers,
			Topic:     defaultTopic,
			Workers:   defaultWorkers,
			QueueSize: defaultQueueSize,
		},
		Mock: MockConfig{
			Listen:     defaultMockListen,
			Model:      defaultMockModel,
			DelayMs:    defaultDelayMs,
			ChunkRunes: defaultChunkRunes,
		},
		MCP: MCPConfig{
			Listen: defaultMCPListen,
		},
	}
}
