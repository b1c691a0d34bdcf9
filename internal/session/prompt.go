package session

import (
	"fmt"
	"strings"

	"github.com/astral-gm/astral/internal/campaign"
)

// gmPersona is the base system prompt: the game master's persona and its
// instructions for emitting the inline marker grammar the parser expects.
// The model has no other way to learn this grammar exists.
const gmPersona = `You are the game master for a tabletop role-playing campaign, narrating scenes,
voicing non-player characters, and adjudicating the rules for a single player.

Write your narration and dialogue using these inline markers so the platform can
route each line to the right voice and trigger the right sound:

  [NARRATE] narrator prose follows, until the next marker
  [NPC:Name] dialogue spoken by the named character follows, until the next marker
  [AMBIENT:description] a looping ambient sound bed, no body text
  [SFX:description] a one-shot sound effect, no body text
  [ROLL:notation] a flavor cue referencing a dice roll already implied by the fiction, no body text

Stay in narrator voice by default. Switch to [NPC:Name] only while that character is
actually speaking, then switch back to [NARRATE]. Use [AMBIENT]/[SFX] sparingly, for
moments that genuinely benefit from a sound cue. Call the roll_dice tool (not the
[ROLL] marker) whenever an action's outcome should actually be determined by a die
roll — the marker is cosmetic narration only.

When the player's action would plausibly change their hit points, an NPC's attitude,
or the status of a tracked plot thread, call the corresponding tool so the change is
recorded.`

// BuildSystemPrompt assembles the full system prompt for a session: the GM
// persona above, plus a campaign-state context block built from the
// campaign's overview, character sheet, and the tail of its session log.
func BuildSystemPrompt(store *campaign.Store) (string, error) {
	block, err := buildContextBlock(store)
	if err != nil {
		return "", err
	}
	if block == "" {
		return gmPersona, nil
	}
	return fmt.Sprintf("%s\n\n## Current Campaign State\n\n%s", gmPersona, block), nil
}

// sessionLogTailLines bounds how much of the session log is included in
// the context block, keeping a long-running campaign's prompt from
// growing without bound.
const sessionLogTailLines = 20

// buildContextBlock assembles the campaign-overview, character-summary,
// and session-log-tail sections of the context block. Any section whose
// backing file is absent or empty is omitted rather than padded out.
func buildContextBlock(store *campaign.Store) (string, error) {
	var parts []string

	overview, err := store.Overview()
	if err != nil {
		return "", fmt.Errorf("session: load overview for prompt: %w", err)
	}
	if overview.CampaignName != "" {
		var ov strings.Builder
		fmt.Fprintf(&ov, "Campaign: %s", overview.CampaignName)
		if loc := overview.PlayerPosition.CurrentLocation; loc != "" {
			fmt.Fprintf(&ov, "\nCurrent location: %s", loc)
		}
		fmt.Fprintf(&ov, "\nTime: %s on %s", orDefault(overview.TimeOfDay, "?"), orDefault(overview.CurrentDate, "?"))
		parts = append(parts, ov.String())
	}

	char, err := store.Character()
	if err != nil {
		return "", fmt.Errorf("session: load character for prompt: %w", err)
	}
	if char.Name != "" {
		parts = append(parts, fmt.Sprintf(
			"Player character: %s — Level %d %s %s, HP %d/%d",
			char.Name, char.Level, char.Race, char.Class, char.HP.Current, char.HP.Max,
		))
	}

	log, err := store.SessionLog()
	if err != nil {
		return "", fmt.Errorf("session: load session log for prompt: %w", err)
	}
	if tail := tailLines(log, sessionLogTailLines); tail != "" {
		parts = append(parts, "Recent session log:\n"+tail)
	}

	return strings.Join(parts, "\n\n"), nil
}

// tailLines returns the last n non-empty trailing lines of log, joined back
// with newlines, or "" if log is empty.
func tailLines(log []byte, n int) string {
	trimmed := strings.TrimSpace(string(log))
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
