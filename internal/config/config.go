// Package config provides the configuration schema, loader, and provider
// registry for the astral game-master server.
package config

// Config is the root configuration structure for astral.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Campaign  CampaignConfig  `yaml:"campaign"`
}

// LogLevel controls slog verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the recognised log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

// ServerConfig holds network and logging settings for the astral server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which provider implementation to use for the
// LLM (orchestrator) and TTS (segment generation) pipeline stages, plus an
// ordered list of fallback providers for each that
// [internal/resilience.LLMFallback] / [internal/resilience.TTSFallback]
// fail over to in order.
type ProvidersConfig struct {
	LLM          ProviderEntry   `yaml:"llm"`
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`
	TTS          ProviderEntry   `yaml:"tts"`
	TTSFallbacks []ProviderEntry `yaml:"tts_fallbacks"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g.,
	// "anthropic", "anyllm", "elevenlabs").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g.,
	// "claude-sonnet-4-5", "eleven_multilingual_v2").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above. Values may be strings, numbers, booleans,
	// or nested maps.
	Options map[string]any `yaml:"options"`
}

// CampaignConfig configures where campaign data and generated-audio caches
// live on disk.
type CampaignConfig struct {
	// RootDir is the directory containing one subdirectory per campaign,
	// each holding the JSON files read by internal/campaign.Store.
	RootDir string `yaml:"root_dir"`

	// AudioCacheDir is the directory used by internal/audiocache for
	// ambient/SFX reuse across campaigns.
	AudioCacheDir string `yaml:"audio_cache_dir"`
}
