// Package orchestrator drives the language-model conversation with tool
// use: it streams a response, holds back incomplete markers from the
// clean-text channel, collects tool calls once the stream closes, executes
// them (suspending for player-resolved dice rolls), and loops until the
// model produces a turn with no further tool calls.
package orchestrator

// EventType identifies the kind of value carried by an Event.
type EventType string

const (
	// EventTextDelta carries an incremental slice of clean (marker-free)
	// narration text, safe to forward to a display-only client as-is.
	EventTextDelta EventType = "text_delta"

	// EventTextEnd closes a text content block, carrying both the clean
	// and raw forms of the full block.
	EventTextEnd EventType = "text_end"

	// EventRawDelta carries the unmodified model output for a block,
	// including inline markers, for the audio pipeline. Never forwarded
	// to a client as the display transcript.
	EventRawDelta EventType = "_raw_delta"

	// EventRollRequest signals that the model called roll_dice. The
	// caller must resolve the roll and call Orchestrator.ResolveRoll
	// before RunTurn can proceed.
	EventRollRequest EventType = "roll_request"

	// EventState carries a structured state update produced by a tool
	// that mutates visible character or world state.
	EventState EventType = "state"
)

// Event is one value yielded on the channel RunTurn returns.
type Event struct {
	Type EventType

	// Content is the text payload for EventTextDelta/EventTextEnd (clean
	// form) and the raw text for EventRawDelta.
	Content string

	// Raw is the unmodified block text, set alongside Content on
	// EventTextEnd.
	Raw string

	// ToolUseID identifies which roll_dice call this request/result pair
	// resolves. Set on EventRollRequest.
	ToolUseID string

	// Notation is the dice expression requested. Set on EventRollRequest.
	Notation string

	// Reason is the model-supplied justification for the roll, if any.
	// Set on EventRollRequest.
	Reason string

	// Updates carries the tool's structured result. Set on EventState.
	Updates map[string]any
}

// RollResult is what the host supplies back via ResolveRoll after a
// player completes a requested dice roll.
type RollResult struct {
	Notation  string
	Total     int
	Rolls     []int
	Natural1  bool
	Natural20 bool
}

// stateMutatingTools names tool calls whose result should also be
// surfaced to the client as an EventState, because they change
// player-visible state rather than just informing the model.
var stateMutatingTools = map[string]bool{
	"update_player_hp":    true,
	"update_npc_attitude": true,
	"update_plot_status":  true,
}

// toAnyMap converts a tool handler's structured result into the map
// EventState carries, tolerating results that are already maps.
func toAnyMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": v}
}
