package config

import (
	"fmt"

	"github.com/astral-gm/astral/internal/llmprovider"
	"github.com/astral-gm/astral/internal/llmprovider/anthropic"
	"github.com/astral-gm/astral/internal/llmprovider/anyllm"
	"github.com/astral-gm/astral/internal/ttsprovider"
	"github.com/astral-gm/astral/internal/ttsprovider/elevenlabs"
)

// newAnthropicProvider builds the "anthropic" LLM provider factory
// registered by [DefaultRegistry].
func newAnthropicProvider(entry ProviderEntry) (llmprovider.Provider, error) {
	var opts []anthropic.Option
	if entry.Model != "" {
		opts = append(opts, anthropic.WithModel(entry.Model))
	}
	return anthropic.New(entry.APIKey, opts...)
}

// newAnyLLMProvider builds the "anyllm" LLM provider factory registered by
// [DefaultRegistry]. The backend identifier (e.g. "ollama", "mistral") is
// read from entry.Options["backend"].
func newAnyLLMProvider(entry ProviderEntry) (llmprovider.Provider, error) {
	backend, _ := entry.Options["backend"].(string)
	if backend == "" {
		return nil, fmt.Errorf("config: providers.llm.options.backend is required for provider %q", entry.Name)
	}
	return anyllm.New(backend, entry.Model, entry.APIKey)
}

// newElevenLabsProvider builds the "elevenlabs" TTS provider factory
// registered by [DefaultRegistry].
func newElevenLabsProvider(entry ProviderEntry) (ttsprovider.Provider, error) {
	var opts []elevenlabs.Option
	if entry.Model != "" {
		opts = append(opts, elevenlabs.WithModel(entry.Model))
	}
	if format, ok := entry.Options["output_format"].(string); ok && format != "" {
		opts = append(opts, elevenlabs.WithOutputFormat(format))
	}
	return elevenlabs.New(entry.APIKey, opts...)
}
