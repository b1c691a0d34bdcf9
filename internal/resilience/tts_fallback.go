package resilience

import (
	"context"

	"github.com/astral-gm/astral/internal/ttsprovider"
)

// TTSFallback implements [ttsprovider.Provider] with automatic failover
// across multiple TTS backends. Each backend has its own circuit breaker.
type TTSFallback struct {
	group *FallbackGroup[ttsprovider.Provider]
}

// Compile-time interface assertion.
var _ ttsprovider.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary ttsprovider.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional TTS provider as a fallback.
func (f *TTSFallback) AddFallback(name string, provider ttsprovider.Provider) {
	f.group.AddFallback(name, provider)
}

// Synthesize renders text as speech using the first healthy provider.
func (f *TTSFallback) Synthesize(ctx context.Context, text string, voice ttsprovider.VoiceProfile) ([]byte, error) {
	return ExecuteWithResult(f.group, func(p ttsprovider.Provider) ([]byte, error) {
		return p.Synthesize(ctx, text, voice)
	})
}

// SynthesizeSound renders an ambient bed or sound effect using the first
// healthy provider.
func (f *TTSFallback) SynthesizeSound(ctx context.Context, description string, durationSeconds float64) ([]byte, error) {
	return ExecuteWithResult(f.group, func(p ttsprovider.Provider) ([]byte, error) {
		return p.SynthesizeSound(ctx, description, durationSeconds)
	})
}

// ListVoices returns available voices from the first healthy provider.
func (f *TTSFallback) ListVoices(ctx context.Context) ([]ttsprovider.VoiceProfile, error) {
	return ExecuteWithResult(f.group, func(p ttsprovider.Provider) ([]ttsprovider.VoiceProfile, error) {
		return p.ListVoices(ctx)
	})
}
