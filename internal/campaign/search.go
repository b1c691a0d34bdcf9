package campaign

import "strings"

// Search scans NPCs, locations, and plots for query as a case-insensitive
// substring of the entity's name or description, falling back to a
// Jaro-Winkler fuzzy match on the name when no substring hits are found.
func (s *Store) Search(query string) (SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	result := SearchResult{
		NPCs:      map[string]NPC{},
		Locations: map[string]Location{},
		Plots:     map[string]Plot{},
	}
	if q == "" {
		return result, nil
	}

	npcs, err := s.NPCs()
	if err != nil {
		return SearchResult{}, err
	}
	locs, err := s.Locations()
	if err != nil {
		return SearchResult{}, err
	}
	plots, err := s.Plots()
	if err != nil {
		return SearchResult{}, err
	}

	for name, npc := range npcs {
		if matches(q, name, npc.Description) {
			result.NPCs[name] = npc
		}
	}
	for name, loc := range locs {
		if matches(q, name, loc.Description) {
			result.Locations[name] = loc
		}
	}
	for id, plot := range plots {
		if matches(q, id, plot.Description) {
			result.Plots[id] = plot
		}
	}

	if len(result.NPCs) == 0 && len(result.Locations) == 0 && len(result.Plots) == 0 {
		fuzzyNameMatch(q, npcs, locs, plots, &result)
	}

	return result, nil
}

func matches(q, name, description string) bool {
	return strings.Contains(strings.ToLower(name), q) || strings.Contains(strings.ToLower(description), q)
}
