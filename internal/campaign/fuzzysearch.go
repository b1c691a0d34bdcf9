package campaign

import "github.com/antzucaro/matchr"

// fuzzyMatchThreshold is the minimum Jaro-Winkler similarity for a name to
// count as a match. Tuned for short proper nouns (NPC/location names),
// where a few transposed or misheard letters are common from a live
// voice-driven session.
const fuzzyMatchThreshold = 0.85

// fuzzyNameMatch supplements an empty substring search with a
// Jaro-Winkler similarity fallback over entity names, so a slightly misspoken
// name (e.g. "Thornwood" for "Thornwick") still surfaces something.
func fuzzyNameMatch(q string, npcs map[string]NPC, locs map[string]Location, plots map[string]Plot, result *SearchResult) {
	for name, npc := range npcs {
		if matchr.JaroWinkler(q, toLowerSimple(name), true) >= fuzzyMatchThreshold {
			result.NPCs[name] = npc
		}
	}
	for name, loc := range locs {
		if matchr.JaroWinkler(q, toLowerSimple(name), true) >= fuzzyMatchThreshold {
			result.Locations[name] = loc
		}
	}
	for id, plot := range plots {
		if matchr.JaroWinkler(q, toLowerSimple(id), true) >= fuzzyMatchThreshold {
			result.Plots[id] = plot
		}
	}
}

func toLowerSimple(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
