// Package audiogen turns a [marker.Segment] into a generated audio artifact:
// a cached-or-generated TTS rendering of narration/dialogue, or a
// cached-or-generated ambient bed/SFX clip. This is the component [internal/pipeline] invokes once per
// segment.
package audiogen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/astral-gm/astral/internal/audiocache"
	"github.com/astral-gm/astral/internal/marker"
	"github.com/astral-gm/astral/internal/observe"
	"github.com/astral-gm/astral/internal/ttsprovider"
	"github.com/astral-gm/astral/internal/voiceregistry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrNoVoice is returned by generateVoice when a registry is configured but
// has no voice assigned to the segment's speaker. The pipeline treats this
// as a silent drop, not a failure.
var ErrNoVoice = errors.New("audiogen: no voice registered for speaker")

// Channel identifies which output bus a client plays an artifact on.
type Channel string

const (
	ChannelVoice   Channel = "voice"
	ChannelAmbient Channel = "ambient"
	ChannelSFX     Channel = "sfx"
)

// durations are generation hints for sound-effect requests, matching the
// original prototype's fixed hints: a longer clip for a looping ambient
// bed, a short one for a one-shot effect.
const (
	ambientDurationSeconds = 10.0
	sfxDurationSeconds     = 3.0
)

const narratorSpeaker = "narrator"

// Artifact is a generated audio clip ready to send to the client.
type Artifact struct {
	Channel Channel
	Speaker string // set for ChannelVoice: "narrator" or an NPC name
	Data    []byte
}

// Generator renders segments into artifacts, consulting the voice registry
// for speaker→voice-ID assignment and the cache for reuse of ambient/SFX
// clips (keyed by category) and of voice lines (keyed by voice ID).
type Generator struct {
	cache    *audiocache.Cache
	provider ttsprovider.Provider
	registry *voiceregistry.Registry
	metrics  *observe.Metrics
}

// New creates a Generator. registry may be nil, in which case every speaker
// falls back to the provider's default voice. metrics may be nil, in which
// case [observe.DefaultMetrics] is used.
func New(cache *audiocache.Cache, provider ttsprovider.Provider, registry *voiceregistry.Registry, metrics *observe.Metrics) *Generator {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Generator{cache: cache, provider: provider, registry: registry, metrics: metrics}
}

// Generate renders seg. Roll segments never reach here — the orchestrator
// consumes them directly — so Generate returns an error if asked to render
// one.
func (g *Generator) Generate(ctx context.Context, seg marker.Segment) (artifact Artifact, err error) {
	start := time.Now()
	defer func() {
		g.metrics.SegmentGenerationDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("kind", string(seg.Kind))))
		if err != nil {
			g.metrics.RecordGeneratorFailure(ctx, string(seg.Kind), err.Error())
		}
	}()

	switch seg.Kind {
	case marker.Narrate, marker.NPC:
		return g.generateVoice(ctx, seg)
	case marker.Ambient:
		return g.generateSound(ctx, ChannelAmbient, "ambient", seg.Meta, ambientDurationSeconds)
	case marker.SFX:
		return g.generateSound(ctx, ChannelSFX, "sfx", seg.Meta, sfxDurationSeconds)
	default:
		return Artifact{}, fmt.Errorf("audiogen: cannot generate audio for segment kind %q", seg.Kind)
	}
}

// generateVoice renders a narrate/npc segment. If a registry is configured
// but has no voice assigned to the speaker, the utterance is dropped
// entirely rather than synthesized with the provider's default voice: an
// NPC without an assigned voice is a configuration gap worth a warning, a
// narrator without one is just unconfigured and drops quietly.
func (g *Generator) generateVoice(ctx context.Context, seg marker.Segment) (Artifact, error) {
	speaker := narratorSpeaker
	if seg.Kind == marker.NPC {
		speaker = seg.Meta
	}

	voice := ttsprovider.VoiceProfile{}
	if g.registry != nil {
		id, ok := g.registry.VoiceID(speaker)
		if !ok {
			if seg.Kind == marker.NPC {
				slog.Warn("audiogen: no voice registered for NPC", "npc", speaker)
			}
			return Artifact{}, ErrNoVoice
		}
		voice.ID = id
	}

	if g.cache != nil && voice.ID != "" {
		if data, ok, err := g.cache.Get(voice.ID, seg.Content); err == nil && ok {
			return Artifact{Channel: ChannelVoice, Speaker: speaker, Data: data}, nil
		}
	}

	data, err := g.provider.Synthesize(ctx, seg.Content, voice)
	if err != nil {
		return Artifact{}, fmt.Errorf("audiogen: synthesize %s speech: %w", speaker, err)
	}

	if g.cache != nil && voice.ID != "" {
		if err := g.cache.Put(voice.ID, seg.Content, data); err != nil {
			slog.Warn("audiogen: cache voice line", "speaker", speaker, "error", err)
		}
	}
	return Artifact{Channel: ChannelVoice, Speaker: speaker, Data: data}, nil
}

func (g *Generator) generateSound(ctx context.Context, channel Channel, prefix, description string, durationSeconds float64) (Artifact, error) {
	if g.cache != nil {
		if data, ok, err := g.cache.Get(prefix, description); err != nil {
			return Artifact{}, fmt.Errorf("audiogen: read %s cache: %w", prefix, err)
		} else if ok {
			g.metrics.RecordAudioCacheLookup(ctx, prefix, true)
			return Artifact{Channel: channel, Data: data}, nil
		}
		g.metrics.RecordAudioCacheLookup(ctx, prefix, false)
	}

	data, err := g.provider.SynthesizeSound(ctx, description, durationSeconds)
	if err != nil {
		return Artifact{}, fmt.Errorf("audiogen: synthesize %s: %w", prefix, err)
	}

	if g.cache != nil {
		if err := g.cache.Put(prefix, description, data); err != nil {
			return Artifact{}, fmt.Errorf("audiogen: cache %s: %w", prefix, err)
		}
	}
	return Artifact{Channel: channel, Data: data}, nil
}
