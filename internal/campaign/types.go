// Package campaign is the on-disk campaign store: JSON-file persistence
// for a campaign's overview, character sheet, NPCs, locations, and plot
// threads, plus the thin HTTP surface and the orchestrator.Toolset
// implementation that lets the model read and mutate that state.
package campaign

// Overview is campaign-overview.json: top-level campaign metadata and
// the player's current position in the world.
type Overview struct {
	CampaignName   string   `json:"campaign_name"`
	SessionCount   int      `json:"session_count"`
	CurrentDate    string   `json:"current_date"`
	TimeOfDay      string   `json:"time_of_day"`
	PlayerPosition Position `json:"player_position"`
}

// Position is the player's current place in the campaign world.
type Position struct {
	CurrentLocation string `json:"current_location"`
}

// HP tracks current and maximum hit points.
type HP struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Character is character.json: the player character sheet.
type Character struct {
	Name  string `json:"name"`
	Race  string `json:"race"`
	Class string `json:"class"`
	Level int    `json:"level"`
	HP    HP     `json:"hp"`
	AC    int    `json:"ac"`
	XP    int    `json:"xp"`
}

// NPCTags groups an NPC's associations with other entities. search_world
// does not match against tags.
type NPCTags struct {
	Locations []string `json:"locations,omitempty"`
	Quests    []string `json:"quests,omitempty"`
}

// NPCEvent is one entry in an NPC's history, recorded by update_npc_attitude and
// surfaced back to the model as context on subsequent search_world calls.
type NPCEvent struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
}

// NPC is one entry in npcs.json.
type NPC struct {
	Description string     `json:"description"`
	Attitude    string     `json:"attitude"`
	Created     string     `json:"created,omitempty"`
	Events      []NPCEvent `json:"events,omitempty"`
	Tags        NPCTags    `json:"tags,omitempty"`
}

// Location is one entry in locations.json.
type Location struct {
	Description string `json:"description"`
	Position    string `json:"position,omitempty"`
}

// Plot is one entry in plots.json: a tracked story thread.
type Plot struct {
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	Note        string `json:"note,omitempty"`
}

// SearchResult is the structured payload the search_world tool returns to
// the model: every entity whose name or description matched the query,
// grouped by kind.
type SearchResult struct {
	NPCs      map[string]NPC      `json:"npcs,omitempty"`
	Locations map[string]Location `json:"locations,omitempty"`
	Plots     map[string]Plot     `json:"plots,omitempty"`
}
