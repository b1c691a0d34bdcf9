package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/astral-gm/astral/internal/orchestrator"
	"github.com/astral-gm/astral/internal/validate"
)

var _ orchestrator.Toolset = (*Store)(nil)

// SearchWorld implements orchestrator.Toolset. query is matched against
// NPC, location, and plot names and descriptions.
func (s *Store) SearchWorld(ctx context.Context, query string) (any, error) {
	return s.Search(query)
}

// UpdatePlayerHP implements orchestrator.Toolset, adjusting the player
// character's current HP by amount (negative for damage, positive for
// healing) and clamping to [0, Max].
func (s *Store) UpdatePlayerHP(ctx context.Context, character string, amount int, reason string) (any, error) {
	hp, err := s.UpdateCharacterHP(amount)
	if err != nil {
		return nil, fmt.Errorf("campaign: update player hp: %w", err)
	}
	return map[string]any{
		"character": character,
		"hp":        hp,
		"reason":    reason,
	}, nil
}

// UpdateNPCAttitude implements orchestrator.Toolset, recording a new
// attitude for an NPC and appending an event to its history. attitude must
// be one of the values validate.Attitude accepts.
func (s *Store) UpdateNPCAttitude(ctx context.Context, name, attitude, reason string) (any, error) {
	attitude, err := validate.Attitude(attitude)
	if err != nil {
		return nil, fmt.Errorf("campaign: update npc attitude: %w", err)
	}

	updated, err := s.UpdateNPC(name, func(n NPC) NPC {
		n.Attitude = attitude
		n.Events = append(n.Events, NPCEvent{
			Event:     fmt.Sprintf("attitude changed to %s: %s", attitude, reason),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return n
	})
	if err != nil {
		return nil, fmt.Errorf("campaign: update npc attitude: %w", err)
	}
	return map[string]any{
		"name":     name,
		"attitude": updated.Attitude,
	}, nil
}

// UpdatePlotStatus implements orchestrator.Toolset, advancing a tracked
// plot thread's status. status must be one of the values validate.PlotStatus
// accepts.
func (s *Store) UpdatePlotStatus(ctx context.Context, plotID, status, note string) (any, error) {
	status, err := validate.PlotStatus(status)
	if err != nil {
		return nil, fmt.Errorf("campaign: update plot status: %w", err)
	}

	updated, err := s.UpdatePlot(plotID, func(p Plot) Plot {
		p.Status = status
		p.Note = note
		return p
	})
	if err != nil {
		return nil, fmt.Errorf("campaign: update plot status: %w", err)
	}
	return map[string]any{
		"plot_id": plotID,
		"status":  updated.Status,
	}, nil
}
