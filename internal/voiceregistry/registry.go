// Package voiceregistry loads and queries the per-campaign mapping from
// speaker (the narrator, or a named NPC) to a TTS provider voice ID.
package voiceregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const fileName = "voice-registry.json"

// narratorSpeaker is the reserved speaker key for narration segments, as
// opposed to a named NPC.
const narratorSpeaker = "narrator"

// VoiceEntry is one speaker's voice assignment.
type VoiceEntry struct {
	VoiceID string `json:"voice_id"`
}

// Registry is the campaign's speaker-to-voice mapping.
type Registry struct {
	Narrator *VoiceEntry           `json:"narrator"`
	NPCs     map[string]VoiceEntry `json:"npcs"`
	Ambience map[string]VoiceEntry `json:"ambience"`
}

// Load reads voice-registry.json from campaignDir. A campaign with no
// registry file gets an empty one rather than an error — every speaker then
// resolves to no voice ID, which the generator drops rather than
// synthesizing with a default voice.
func Load(campaignDir string) (*Registry, error) {
	path := filepath.Join(campaignDir, fileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Registry{NPCs: map[string]VoiceEntry{}, Ambience: map[string]VoiceEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("voiceregistry: read %s: %w", path, err)
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("voiceregistry: parse %s: %w", path, err)
	}
	if reg.NPCs == nil {
		reg.NPCs = map[string]VoiceEntry{}
	}
	if reg.Ambience == nil {
		reg.Ambience = map[string]VoiceEntry{}
	}
	return &reg, nil
}

// VoiceID resolves the voice ID for speaker. speaker is either "narrator" or
// an NPC name. The second return value is false when no voice is assigned,
// in which case the caller drops the utterance rather than generating it
// with a default voice.
func (r *Registry) VoiceID(speaker string) (string, bool) {
	if speaker == narratorSpeaker {
		if r.Narrator == nil || r.Narrator.VoiceID == "" {
			return "", false
		}
		return r.Narrator.VoiceID, true
	}
	entry, ok := r.NPCs[speaker]
	if !ok || entry.VoiceID == "" {
		return "", false
	}
	return entry.VoiceID, true
}
