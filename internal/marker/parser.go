package marker

import "strings"

// ParseSegments splits text into an ordered list of [Segment] values by
// scanning for inline markers. Text preceding the first marker, and text with
// no markers at all, is treated as a single Narrate segment. Ambient, SFX and
// Roll segments carry no content, only Meta. Narrate and NPC segments with
// empty (whitespace-only) content after a marker are dropped.
func ParseSegments(text string) []Segment {
	locs := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		content := strings.TrimSpace(text)
		if content == "" {
			return nil
		}
		return []Segment{{Kind: Narrate, Content: content}}
	}

	segments := make([]Segment, 0, len(locs))
	for i, loc := range locs {
		tagStart, tagEnd := loc[2], loc[3]
		tag := text[tagStart:tagEnd]

		contentStart := loc[1]
		contentEnd := len(text)
		if i+1 < len(locs) {
			contentEnd = locs[i+1][0]
		}
		content := strings.TrimSpace(text[contentStart:contentEnd])

		kind, meta, _ := classifyTag(tag)
		switch kind {
		case Ambient, SFX, Roll:
			segments = append(segments, Segment{Kind: kind, Meta: meta})
		case Narrate, NPC:
			if content == "" {
				continue
			}
			segments = append(segments, Segment{Kind: kind, Content: content, Meta: meta})
		}
	}
	return segments
}

// StripMarkers removes cue markers (Ambient/SFX/Roll) entirely and converts
// voice markers (Narrate/NPC) into their plain-text equivalent: NARRATE
// disappears, NPC:Name becomes "Name: ". Runs of three or more newlines
// collapse to two. The result is trimmed of leading/trailing whitespace.
//
// This is what a client displays as the chat transcript; it is never what
// gets sent to a voice generator.
func StripMarkers(text string) string {
	out := stripAmbient.ReplaceAllString(text, "")
	out = stripSFX.ReplaceAllString(out, "")
	out = stripRoll.ReplaceAllString(out, "")
	out = stripNarrate.ReplaceAllString(out, "")
	out = stripNPC.ReplaceAllString(out, "$1: ")
	out = collapseNL.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
