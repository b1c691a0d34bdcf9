package marker

import "regexp"

// markerPattern matches a complete bracketed marker: NARRATE, NPC:<name>,
// AMBIENT:<desc>, SFX:<desc>, or ROLL:<notation>[:<label>]. The capture group
// is everything between the brackets. Segment kinds are case-insensitive in
// the wire grammar, so the tag itself is matched case-insensitively; meta
// (NPC name, description, notation) keeps whatever case the model used.
var markerPattern = regexp.MustCompile(`(?i)\[(NARRATE|NPC:[^\]]+|AMBIENT:[^\]]+|SFX:[^\]]+|ROLL:[^\]]+)\]`)

// sentenceEnd matches a sentence-terminal punctuation mark, not preceded by
// a '.' (so ellipses don't trigger early), optionally followed by a closing
// quote, then whitespace. The match's end position is the cut point: text
// up to and including the captured whitespace belongs to the sentence.
var sentenceEnd = regexp.MustCompile(`[^.][.!?]['"]?\s`)

// markerStrip{Ambient,SFX,Roll} remove a cue marker and any trailing
// whitespace entirely; narrate/npc markers are replaced rather than removed.
var (
	stripAmbient = regexp.MustCompile(`(?i)\[AMBIENT:[^\]]+\]\s*`)
	stripSFX     = regexp.MustCompile(`(?i)\[SFX:[^\]]+\]\s*`)
	stripRoll    = regexp.MustCompile(`(?i)\[ROLL:[^\]]+\]\s*`)
	stripNarrate = regexp.MustCompile(`(?i)\[NARRATE\]`)
	stripNPC     = regexp.MustCompile(`(?i)\[NPC:([^\]]+)\]`)
	collapseNL   = regexp.MustCompile(`\n{3,}`)
)

const (
	prefixNPC     = "NPC:"
	prefixAmbient = "AMBIENT:"
	prefixSFX     = "SFX:"
	prefixRoll    = "ROLL:"
	tagNarrate    = "NARRATE"
)
