// Package marker implements the inline-marker grammar that the game-master
// model embeds in its narration: bracketed tags that switch voice context
// or trigger ambient/SFX/dice cues. It provides both a batch parser (used
// to replay cached opening turns) and a streaming parser (used on the live
// token-by-token model output).
package marker

// Kind is one of the five recognised segment kinds. The wire grammar is
// case-insensitive; Kind values are always the lower-case canonical form.
type Kind string

const (
	// Narrate is narrator-voice prose, emitted with the narrator's voice.
	Narrate Kind = "narrate"

	// NPC is dialogue spoken by a named non-player character.
	NPC Kind = "npc"

	// Ambient triggers or crossfades a looping ambient sound bed.
	Ambient Kind = "ambient"

	// SFX triggers a one-shot sound effect.
	SFX Kind = "sfx"

	// Roll is a dice-roll cue. Roll segments never reach the audio pipeline —
	// they are consumed by the orchestrator layer.
	Roll Kind = "roll"
)

// IsValid reports whether k is one of the five recognised segment kinds.
func (k Kind) IsValid() bool {
	switch k {
	case Narrate, NPC, Ambient, SFX, Roll:
		return true
	}
	return false
}

// Segment is the unit exchanged between the parser and the audio pipeline.
//
// Content carries utterance text for Narrate/NPC segments and is empty for
// Ambient/SFX/Roll. Meta carries the NPC name for NPC, the descriptive
// phrase for Ambient/SFX, or the dice notation (plus optional label) for
// Roll; it is empty for Narrate.
type Segment struct {
	Kind    Kind
	Content string
	Meta    string
}

// VoiceContext is the two-field cursor the parser maintains while scanning:
// the active voice (Narrate or NPC) and, when NPC, the speaking NPC's name.
type VoiceContext struct {
	Kind    Kind
	NPCName string
}
