package config

import "maps"

// ConfigDiff describes what changed between two configs. The log level can
// be applied live; LLM/TTS entry changes are reported but take effect only
// after a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	LLMChanged bool
	TTSChanged bool
}

// Diff compares old and new configs and returns what changed in the log
// level and the LLM/TTS provider entries.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !entriesEqual(old.Providers.LLM, new.Providers.LLM) {
		d.LLMChanged = true
	}
	if !entriesEqual(old.Providers.TTS, new.Providers.TTS) {
		d.TTSChanged = true
	}

	return d
}

// entriesEqual compares two [ProviderEntry] values field by field, since
// the Options map makes them non-comparable with ==.
func entriesEqual(a, b ProviderEntry) bool {
	return a.Name == b.Name &&
		a.APIKey == b.APIKey &&
		a.BaseURL == b.BaseURL &&
		a.Model == b.Model &&
		maps.Equal(a.Options, b.Options)
}
