package orchestrator

import (
	"context"

	"github.com/astral-gm/astral/internal/llmprovider"
)

// Tools lists the schemas offered to the model on every streaming request.
// roll_dice is handled specially by RunTurn (it suspends for a
// player-resolved roll rather than executing synchronously); every other
// tool is dispatched to the configured Toolset.
func Tools() []llmprovider.ToolDefinition {
	return []llmprovider.ToolDefinition{
		{
			Name:        "roll_dice",
			Description: "Roll dice using standard notation (e.g., 1d20+5, 2d6, 2d20kh1).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"notation": map[string]any{"type": "string", "description": "Dice notation"},
					"reason":   map[string]any{"type": "string", "description": "What the roll is for"},
				},
				"required": []string{"notation"},
			},
		},
		{
			Name:        "search_world",
			Description: "Search campaign world state and source material (NPCs, locations, plots, rules text) by free-text query.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Search query"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "update_player_hp",
			Description: "Modify player HP (positive to heal, negative for damage).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"character": map[string]any{"type": "string"},
					"amount":    map[string]any{"type": "integer"},
					"reason":    map[string]any{"type": "string"},
				},
				"required": []string{"character", "amount"},
			},
		},
		{
			Name:        "update_npc_attitude",
			Description: "Change an NPC's attitude toward the party (e.g. hostile, unfriendly, neutral, friendly, helpful).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":     map[string]any{"type": "string"},
					"attitude": map[string]any{"type": "string"},
					"reason":   map[string]any{"type": "string"},
				},
				"required": []string{"name", "attitude"},
			},
		},
		{
			Name:        "update_plot_status",
			Description: "Advance or change the status of a tracked plot thread (e.g. active, resolved, abandoned).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"plot_id": map[string]any{"type": "string"},
					"status":  map[string]any{"type": "string"},
					"note":    map[string]any{"type": "string"},
				},
				"required": []string{"plot_id", "status"},
			},
		},
	}
}

// Toolset executes every tool call other than roll_dice, which RunTurn
// handles directly via the roll-request suspend/resume protocol. Each
// method returns a JSON-serializable result that becomes the tool_result
// message content, or an error that is reported back to the model as the
// tool result instead of halting the turn.
//
// internal/campaign provides the production implementation, backed by the
// on-disk campaign store; tests use a stub.
type Toolset interface {
	SearchWorld(ctx context.Context, query string) (any, error)
	UpdatePlayerHP(ctx context.Context, character string, amount int, reason string) (any, error)
	UpdateNPCAttitude(ctx context.Context, name, attitude, reason string) (any, error)
	UpdatePlotStatus(ctx context.Context, plotID, status, note string) (any, error)
}

// execute dispatches a non-dice tool call by name. The arguments map comes
// from decoding the tool call's JSON arguments.
func execute(ctx context.Context, tools Toolset, name string, args map[string]any) (any, error) {
	switch name {
	case "search_world":
		return tools.SearchWorld(ctx, str(args["query"]))
	case "update_player_hp":
		return tools.UpdatePlayerHP(ctx, str(args["character"]), toInt(args["amount"]), str(args["reason"]))
	case "update_npc_attitude":
		return tools.UpdateNPCAttitude(ctx, str(args["name"]), str(args["attitude"]), str(args["reason"]))
	case "update_plot_status":
		return tools.UpdatePlotStatus(ctx, str(args["plot_id"]), str(args["status"]), str(args["note"]))
	default:
		return nil, &unknownToolError{name: name}
	}
}

type unknownToolError struct{ name string }

func (e *unknownToolError) Error() string { return "orchestrator: unknown tool " + e.name }

func str(v any) string {
	s, _ := v.(string)
	return s
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
