// Package mock provides a deterministic, in-memory ttsprovider.Provider for
// tests that exercise [internal/audiogen] and [internal/pipeline] without
// hitting a real TTS service.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/astral-gm/astral/internal/ttsprovider"
)

// Provider renders every request deterministically by formatting its
// arguments as bytes, so tests can assert on exactly what was synthesized.
type Provider struct {
	mu          sync.Mutex
	voiceCalls  []string
	soundCalls  []string
	Voices      []ttsprovider.VoiceProfile
	SynthesizeErr error
}

var _ ttsprovider.Provider = (*Provider)(nil)

// New creates an empty mock Provider.
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Synthesize(_ context.Context, text string, voice ttsprovider.VoiceProfile) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SynthesizeErr != nil {
		return nil, p.SynthesizeErr
	}
	p.voiceCalls = append(p.voiceCalls, text)
	return []byte(fmt.Sprintf("voice:%s:%s", voice.ID, text)), nil
}

func (p *Provider) SynthesizeSound(_ context.Context, description string, durationSeconds float64) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SynthesizeErr != nil {
		return nil, p.SynthesizeErr
	}
	p.soundCalls = append(p.soundCalls, description)
	return []byte(fmt.Sprintf("sound:%.1f:%s", durationSeconds, description)), nil
}

func (p *Provider) ListVoices(_ context.Context) ([]ttsprovider.VoiceProfile, error) {
	return p.Voices, nil
}

// VoiceCalls returns the text of every Synthesize call made so far, in order.
func (p *Provider) VoiceCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.voiceCalls))
	copy(out, p.voiceCalls)
	return out
}

// SoundCalls returns the description of every SynthesizeSound call made so
// far, in order.
func (p *Provider) SoundCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.soundCalls))
	copy(out, p.soundCalls)
	return out
}
