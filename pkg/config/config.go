package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/splice/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .splice/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the list of all supported configuration key names.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}

	// Return in a stable, logical order matching the TOML section layout.
	ordered := []string{
		"api.base_url",
		"api.key_env",
		"api.model",
		"api.timeout_seconds",
		"api.max_retries",
		"stream.read_buffer_bytes",
		"stream.max_line_bytes",
		"stream.buffer_capacity",
		"stream.strict_tool_calls",
		"telemetry.enabled",
		"telemetry.brokers",
		"telemetry.topic",
		"telemetry.workers",
		"telemetry.queue_size",
		"mock.listen",
		"mock.model",
		"mock.delay_ms",
		"mock.chunk_runes",
		"mcp.listen",
	}

	// Sanity: only return keys that actually exist in the map.
	result := make([]string, 0, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	seen := make(map[string]bool, len(result))
	for _, k := range result {
		seen[k] = true
	}
	for _, k := range keys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target
// .splice/ directory. If the file does not exist, returns
// NewDefaultConfig() so callers always receive a fully-populated
// Config with sane defaults. Fields explicitly set in the file
// override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	// Merge in defaults: fill in any zero-value fields from the loaded config
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from
// NewDefaultConfig(). Boolean fields default to false and are left
// alone.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.KeyEnv == "" {
		cfg.API.KeyEnv = defaults.API.KeyEnv
	}
	if cfg.API.Model == "" {
		cfg.API.Model = defaults.API.Model
	}
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = defaults.API.TimeoutSeconds
	}
	if cfg.API.MaxRetries == 0 {
		cfg.API.MaxRetries = defaults.API.MaxRetries
	}

	if cfg.Stream.ReadBufferBytes == 0 {
		cfg.Stream.ReadBufferBytes = defaults.Stream.ReadBufferBytes
	}
	if cfg.Stream.MaxLineBytes == 0 {
		cfg.Stream.MaxLineBytes = defaults.Stream.MaxLineBytes
	}
	if cfg.Stream.BufferCapacity == 0 {
		cfg.Stream.BufferCapacity = defaults.Stream.BufferCapacity
	}

	if cfg.Telemetry.Brokers == "" {
		cfg.Telemetry.Brokers = defaults.Telemetry.Brokers
	}
	if cfg.Telemetry.Topic == "" {
		cfg.Telemetry.Topic = defaults.Telemetry.Topic
	}
	if cfg.Telemetry.Workers == 0 {
		cfg.Telemetry.Workers = defaults.Telemetry.Workers
	}
	if cfg.Telemetry.QueueSize == 0 {
		cfg.Telemetry.QueueSize = defaults.Telemetry.QueueSize
	}

	if cfg.Mock.Listen == "" {
		cfg.Mock.Listen = defaults.Mock.Listen
	}
	if cfg.Mock.Model == "" {
		cfg.Mock.Model = defaults.Mock.Model
	}
	if cfg.Mock.DelayMs == 0 {
		cfg.Mock.DelayMs = defaults.Mock.DelayMs
	}
	if cfg.Mock.ChunkRunes == 0 {
		cfg.Mock.ChunkRunes = defaults.Mock.ChunkRunes
	}

	if cfg.MCP.Listen == "" {
		cfg.MCP.Listen = defaults.MCP.Listen
	}
}

// SaveConfig persists the configuration to config.toml in the target
// .splice/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with sane defaults for the named endpoint preset.
// Supported presets: "openai", "openrouter", "mock".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	switch strings.ToLower(name) {
	case "openai":
		cfg := NewDefaultConfig()
		cfg.API = APIConfig{
			BaseURL:        "https://api.openai.com/v1",
			KeyEnv:         "OPENAI_API_KEY",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: defaultTimeoutSeconds,
			MaxRetries:     defaultMaxRetries,
		}
		return cfg, nil

	case "openrouter":
		cfg := NewDefaultConfig()
		cfg.API = APIConfig{
			BaseURL:        "https://openrouter.ai/api/v1",
			KeyEnv:         "OPENROUTER_API_KEY",
			Model:          "openai/gpt-4o-mini",
			TimeoutSeconds: defaultTimeoutSeconds,
			MaxRetries:     defaultMaxRetries,
		}
		return cfg, nil

	case "mock":
		cfg := NewDefaultConfig()
		cfg.API = APIConfig{
			BaseURL:        "http://" + defaultMockListen + "/v1",
			KeyEnv:         "SPLICE_MOCK_KEY",
			Model:          defaultMockModel,
			TimeoutSeconds: defaultTimeoutSeconds,
			MaxRetries:     defaultMaxRetries,
		}
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: openai, openrouter, mock)", name)
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"openai", "openrouter", "mock"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// KafkaBrokers splits the comma-separated telemetry broker list into
// the address slice the Kafka writer wants.
func (t *TelemetryConfig) KafkaBrokers() []string {
	if t.Brokers == "" {
		return nil
	}
	parts := strings.Split(t.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
