// Package ttsprovider defines the synchronous text-to-speech and
// sound-generation contract that [internal/audiogen] generators call
// against, plus concrete implementations.
//
// The teacher's pkg/provider/tts.Provider is shaped for incremental,
// channel-based synthesis suited to a live voice conversation. A game
// segment is a short, already-complete utterance or cue description, so
// this package narrows that contract to request/response: one segment in,
// one audio artifact out. See DESIGN.md for the full rationale.
package ttsprovider

import "context"

// VoiceProfile identifies a voice a Provider can speak with.
type VoiceProfile struct {
	ID       string
	Name     string
	Provider string
	Metadata map[string]string
}

// Provider generates audio from text. Implementations must be safe for
// concurrent use: the pipeline fans out TTS/SFX generation across
// simultaneously in-flight segments.
type Provider interface {
	// Synthesize renders text as speech in the given voice. An empty
	// voice.ID asks the provider to use its own default voice.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)

	// SynthesizeSound renders a non-speech ambient bed or sound effect from
	// a natural-language description. durationSeconds is a generation hint,
	// not a hard clip length.
	SynthesizeSound(ctx context.Context, description string, durationSeconds float64) ([]byte, error)

	// ListVoices returns the voices available to this provider, for
	// populating or validating a campaign's voice registry.
	ListVoices(ctx context.Context) ([]VoiceProfile, error)
}
