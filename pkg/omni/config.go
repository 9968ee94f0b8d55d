// Package omni wires the OmniHome session together: speech capture,
// model round-trips, command dispatch, spoken replies, and the
// dashboard.
package omni

import (
	"github.com/omnihome/omnihome/internal/config"
)

// Default configuration values.
const (
	DefaultAddr      = ":8090"
	DefaultStaticDir = "./web"
)

// Config holds all configuration for the OmniHome application.
// Flag parsing is done in cmd/omnihome/main.go; this struct is data only.
type Config struct {
	// Addr is the dashboard listen address.
	Addr string

	// StaticDir holds the dashboard assets. Empty disables static
	// serving.
	StaticDir string

	// Model overrides the default inference model.
	Model string

	// TTSVoice is the ElevenLabs voice ID. Empty selects one from the
	// provider's catalog.
	TTSVoice string

	// SpeechGatewayURL is the websocket URL of the speech-to-text
	// gateway. Empty disables microphone capture.
	SpeechGatewayURL string

	// LocalAudio plays spoken replies on the local output device in
	// addition to the dashboard audio feed.
	LocalAudio bool

	// AudioDumpDir, when set, writes each spoken reply to a WAV file.
	AudioDumpDir string

	// Debug enables verbose logging.
	Debug bool

	// API keys, typically from environment variables.
	GeminiKey     string
	ElevenLabsKey string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:      DefaultAddr,
		StaticDir: DefaultStaticDir,
	}
}

// LoadEnvConfig loads configuration values from environment variables.
// Call after flag parsing; flags win where both are set.
func (c *Config) LoadEnvConfig() {
	c.GeminiKey = config.GeminiKey()
	c.ElevenLabsKey = config.ElevenLabsKey()
	if c.SpeechGatewayURL == "" {
		c.SpeechGatewayURL = config.SpeechGatewayURL()
	}
	if c.Addr == "" || c.Addr == DefaultAddr {
		c.Addr = config.ListenAddr()
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.GeminiKey == "" {
		return &ConfigError{Field: "GeminiKey", Message: "GEMINI_API_KEY environment variable is required"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
