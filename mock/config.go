package mock

import "time"

// Config is the mock server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:8090")
	ListenAddr string

	// Model is the model name reported in responses, regardless of the
	// model the request asked for. Defaults to "mock-gpt".
	Model string

	// APIKey, when set, makes every request require
	// "Authorization: Bearer <APIKey>".
	APIKey string

	// ChunkRunes is the content chunk size for streamed responses, in
	// runes so multi-byte characters are never split. Defaults to 8.
	ChunkRunes int

	// Delay is the pause before each streamed chunk. Zero streams
	// without pacing.
	Delay time.Duration
}

// applyDefaults fills zero-valued fields with working defaults.
func applyDefaults(config Config) Config {
	if config.Model == "" {
		config.Model = "mock-gpt"
	}
	if config.ChunkRunes <= 0 {
		config.ChunkRunes = 8
	}
	return config
}
