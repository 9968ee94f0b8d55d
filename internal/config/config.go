// Package config provides environment configuration helpers for omnihome.
package config

import "os"

// Environment variable names read at startup.
const (
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvElevenLabsKey = "ELEVENLABS_API_KEY"
	EnvSpeechGateway = "SPEECH_GATEWAY_URL"
	EnvListenAddr    = "OMNIHOME_ADDR"
	EnvLogLevel      = "LOG_LEVEL"
)

// DefaultListenAddr is the dashboard bind address when none is configured.
const DefaultListenAddr = ":8090"

// GeminiKey returns the Gemini API key, or "" if not set.
func GeminiKey() string {
	return os.Getenv(EnvGeminiKey)
}

// ElevenLabsKey returns the ElevenLabs API key, or "" if not set.
func ElevenLabsKey() string {
	return os.Getenv(EnvElevenLabsKey)
}

// SpeechGatewayURL returns the speech gateway websocket URL, or "" if not set.
func SpeechGatewayURL() string {
	return os.Getenv(EnvSpeechGateway)
}

// ListenAddr returns the dashboard bind address from OMNIHOME_ADDR.
// Falls back to DefaultListenAddr if not set.
func ListenAddr() string {
	if addr := os.Getenv(EnvListenAddr); addr != "" {
		return addr
	}
	return DefaultListenAddr
}

// LogLevel returns the configured log level, or "" for the default.
func LogLevel() string {
	return os.Getenv(EnvLogLevel)
}
